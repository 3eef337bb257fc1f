package main

import "time"

type user struct {
	ID        string    `json:"id" yaml:"id"`
	Email     string    `json:"email" yaml:"email"`
	Role      string    `json:"role" yaml:"role"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

type loginResult struct {
	AccessToken string `json:"accessToken" yaml:"accessToken"`
	TokenType   string `json:"tokenType" yaml:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn" yaml:"expiresIn"`
	User        user   `json:"user" yaml:"user"`
}

type note struct {
	ID               string    `json:"id" yaml:"id"`
	Title            string    `json:"title" yaml:"title"`
	Description      string    `json:"description" yaml:"description"`
	Status           string    `json:"status" yaml:"status"`
	CreatedAt        time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" yaml:"updatedAt"`
	WordCount        int       `json:"wordCount" yaml:"wordCount"`
	IsPubliclyShared bool      `json:"isPubliclyShared" yaml:"isPubliclyShared"`
	TotalViews       int       `json:"totalViews" yaml:"totalViews"`
}

type link struct {
	ID          string     `json:"id" yaml:"id"`
	PublicID    string     `json:"publicId" yaml:"publicId"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	ViewCount   int        `json:"viewCount" yaml:"viewCount"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
	IsExpired   bool       `json:"isExpired" yaml:"isExpired"`
	IsActive    bool       `json:"isActive" yaml:"isActive"`
	PublicURL   string     `json:"publicUrl" yaml:"publicUrl"`
	Note        struct {
		ID    string `json:"id" yaml:"id"`
		Title string `json:"title" yaml:"title"`
	} `json:"note" yaml:"note"`
}

type pageInfo struct {
	Total      int64 `json:"total" yaml:"total"`
	Page       int   `json:"page" yaml:"page"`
	TotalPages int   `json:"totalPages" yaml:"totalPages"`
}

type notePage struct {
	Notes    []note `json:"notes" yaml:"notes"`
	pageInfo `yaml:",inline"`
}

type linkPage struct {
	Links    []link `json:"links" yaml:"links"`
	pageInfo `yaml:",inline"`
}

type userPage struct {
	Users    []user `json:"users" yaml:"users"`
	pageInfo `yaml:",inline"`
}
