package types

// Workspace links a session's working directory to the repository it belongs to.
type Workspace struct {
	ID           string `json:"id"`
	RepositoryID string `json:"repositoryID"`
	Path         string `json:"path"`
	Created      int64  `json:"created"`
}

// Repository represents a project-level entity carrying project-scoped
// permission grants shared by every workspace checked out from it.
type Repository struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Path        string           `json:"path"`
	Permissions PermissionConfig `json:"permissions"`
	Created     int64            `json:"created"`
	Updated     int64            `json:"updated"`
}
