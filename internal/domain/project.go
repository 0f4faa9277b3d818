package domain

import "time"

// ProjectType enumerates supported project shapes.
type ProjectType string

const (
	ProjectTypeSingle    ProjectType = "single"
	ProjectTypeFullstack ProjectType = "fullstack"
)

// ProjectFile is a single generated file: a relative path and its content.
type ProjectFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Project is a persisted generated project document.
type Project struct {
	ID                string
	UserID            string
	Name              string
	Prompt            string
	Framework         string
	ProjectType       ProjectType
	Theme             string
	Files             []ProjectFile
	SetupInstructions string
	DeploymentGuide   string
	Fixes             []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
