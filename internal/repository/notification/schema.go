package notification

import "time"

// EventRecord is the events table schema. Writes go through positional SQL;
// the record only exists for migrations.
type EventRecord struct {
	ID                int64  `gorm:"primaryKey"`
	Rule              string `gorm:"type:varchar(255);not null"`
	Subject           *string
	DeviceID          *int64
	DeviceName        *string
	Reading           *string
	TriggeredDT       *time.Time `gorm:"column:triggered_dt;type:timestamp"`
	ReadingDT         *time.Time `gorm:"column:reading_dt;type:timestamp"`
	OriginalReadingDT *time.Time `gorm:"column:original_reading_dt;type:timestamp"`
	AcknowledgeURL    *string    `gorm:"column:acknowledge_url"`
	MessageCount      int        `gorm:"not null;default:0"`
	ParentAccount     *string
	NetworkID         *int64
	Network           *string
	AccountID         *int64
	AccountNumber     *string
	CompanyName       *string
	Created           time.Time       `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP"`
	Messages          []MessageRecord `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
}

func (EventRecord) TableName() string { return "events" }

// MessageRecord is the messages table schema.
type MessageRecord struct {
	ID           int64      `gorm:"primaryKey"`
	EventID      *int64     `gorm:"index"`
	MessageID    *string    `gorm:"type:char(34);index"`
	Recipient    string     `gorm:"type:varchar(30);not null"`
	Status       *string    `gorm:"type:varchar(20)"`
	SentDT       *time.Time `gorm:"column:sent_dt;type:timestamp"`
	DeliveredDT  *time.Time `gorm:"column:delivered_dt;type:timestamp"`
	ErrorCode    *int64
	ErrorMessage *string
	Created      time.Time  `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP"`
	Updated      *time.Time `gorm:"type:timestamp"`
}

func (MessageRecord) TableName() string { return "messages" }

// Models lists the records to auto migrate.
func Models() []any {
	return []any{&EventRecord{}, &MessageRecord{}}
}
