package dto

import "time"

type AdminUserResponse struct {
	UserResponse
	NoteCount int64 `json:"note_count"`
}

type UserStatsResponse struct {
	TotalUsers   int64 `json:"total_users"`
	AdminUsers   int64 `json:"admin_users"`
	RegularUsers int64 `json:"regular_users"`
}

type NoteStatsResponse struct {
	TotalNotes        int64 `json:"total_notes"`
	SharedNotes       int64 `json:"shared_notes"`
	ExpiredNotes      int64 `json:"expired_notes"`
	ExpiringWithinDay int64 `json:"expiring_within_day"`
}

type DashboardResponse struct {
	Users       UserStatsResponse `json:"users"`
	Notes       NoteStatsResponse `json:"notes"`
	GeneratedAt time.Time         `json:"generated_at"`
}
