package models

import "time"

// AccountEvent — событие об изменении учётной записи для внешних подписчиков.
type AccountEvent struct {
	AccountID   string    `json:"account_id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Event формирует событие для учётной записи.
func (a *Account) Event(at time.Time) AccountEvent {
	return AccountEvent{
		AccountID:   a.ID,
		Username:    a.Username,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		OccurredAt:  at,
	}
}
