// Package dto provides the data transfer objects of the HTTP API.
package dto

// FileUpload is one file of an uploaded bundle. Content is base64 encoded.
type FileUpload struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

// BackendRequest asks for PathPrefix to be proxied to URL.
type BackendRequest struct {
	URL        string `json:"url"`
	PathPrefix string `json:"pathPrefix"`
}

// DeployRequest is the body of POST /deploy.
type DeployRequest struct {
	ProjectID string          `json:"projectId"`
	Subdomain string          `json:"subdomain"`
	Files     []FileUpload    `json:"files"`
	Backend   *BackendRequest `json:"backend,omitempty"`
}

// DeployResponse is returned after a successful deployment.
type DeployResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url"`
	RunID   string `json:"runId,omitempty"`
}

// DeleteRequest is the body of POST /delete.
type DeleteRequest struct {
	Subdomain string `json:"subdomain"`
}

// DeleteResponse is returned after a site was removed.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CheckResponse reports whether a subdomain can be claimed.
type CheckResponse struct {
	Subdomain string `json:"subdomain"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
