// internal/models/notification.go
package models

// NotificationLog is the durable fallback record for outbound messages. Every
// send that cannot be delivered over SMTP (transport failure or no transport
// configured) is appended here so no approval notification silently vanishes.
type NotificationLog struct {
	BaseModel
	Recipient string `json:"recipient" gorm:"size:255;not null;index"`
	Subject   string `json:"subject" gorm:"size:255;not null"`
	TextBody  string `json:"text_body" gorm:"type:text"`
	HTMLBody  string `json:"html_body,omitempty" gorm:"type:text"`
	Delivered bool   `json:"delivered" gorm:"default:false;index"`
	Reason    string `json:"reason,omitempty" gorm:"size:255"`
}
