package store

// Models mirror the original sobriety.db schema. String dates and
// timestamps are kept as ISO-8601 text, matching what clients already
// send and render.

type User struct {
	ID                int64   `gorm:"primaryKey" json:"id"`
	Username          string  `gorm:"uniqueIndex;not null" json:"username"`
	Password          string  `gorm:"not null" json:"-"`
	SobrietyStartDate *string `json:"sobriety_start_date"`
}

type RefreshToken struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	Token     string `gorm:"index;not null" json:"-"`
	UserID    int64  `gorm:"not null" json:"user_id"`
	ExpiresAt string `gorm:"not null" json:"expires_at"`
}

type JournalEntry struct {
	ID      int64  `gorm:"primaryKey" json:"id"`
	Date    string `gorm:"not null" json:"date"`
	Content string `gorm:"not null" json:"content"`
	Mood    string `json:"mood"`
	UserID  int64  `gorm:"index" json:"user_id"`
}

type Post struct {
	ID      int64  `gorm:"primaryKey" json:"id"`
	Title   string `gorm:"not null" json:"title"`
	Content string `gorm:"not null" json:"content"`
	UserID  int64  `gorm:"index" json:"user_id"`
}

type Comment struct {
	ID      int64  `gorm:"primaryKey" json:"id"`
	Content string `gorm:"not null" json:"content"`
	PostID  int64  `gorm:"index;not null" json:"post_id"`
	UserID  int64  `json:"user_id"`
}

type MeetingRoom struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
}

type Message struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	RoomID    int64  `gorm:"index;not null" json:"room_id"`
	Author    string `gorm:"not null" json:"author"`
	Content   string `gorm:"not null" json:"content"`
	Timestamp string `gorm:"not null" json:"timestamp"`
}

type SharingQueueEntry struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	RoomID    int64  `gorm:"index;not null" json:"room_id"`
	Author    string `gorm:"not null" json:"author"`
	Timestamp string `gorm:"not null" json:"timestamp"`
}

func (SharingQueueEntry) TableName() string { return "sharing_queue" }

type InventoryEntry struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	UserID      int64  `gorm:"index" json:"user_id"`
	Type        string `gorm:"not null" json:"type"`
	Description string `json:"description"`
	AffectsWhat string `json:"affects_what"`
	MyPart      string `json:"my_part"`
	FearType    string `json:"fear_type"`
}

func (InventoryEntry) TableName() string { return "fourth_step_inventory" }
