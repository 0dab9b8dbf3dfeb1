package dto

type SystemStatusResponse struct {
	Database      string   `json:"database"`
	Tables        []string `json:"tables"`
	MemberCount   int64    `json:"member_count"`
	UserCount     int64    `json:"user_count"`
	RemoteStorage bool     `json:"remote_storage"`
	UploadDir     string   `json:"upload_dir"`
}
