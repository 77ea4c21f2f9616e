package postgres

import "time"

type listingModel struct {
	ID              string `gorm:"primaryKey"`
	HostID          string `gorm:"not null;index"`
	Title           string
	City            string
	NightlyAmount   int64
	NightlyCurrency string `gorm:"size:3"`
	MonthlyAmount   int64
	MonthlyCurrency string `gorm:"size:3"`
	RentalMode      string `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (listingModel) TableName() string { return "listings" }

type userModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"not null;uniqueIndex:users_email_key"`
	Name         string
	Phone        string
	PasswordHash string `gorm:"not null"`
	Roles        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

type sessionModel struct {
	Token     string `gorm:"primaryKey"`
	UserID    string `gorm:"not null;index"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"not null;index"`
}

func (sessionModel) TableName() string { return "sessions" }

type overrideModel struct {
	ListingID   string    `gorm:"primaryKey"`
	Date        time.Time `gorm:"primaryKey;type:date"`
	IsAvailable bool      `gorm:"not null"`
	UpdatedBy   string
	UpdatedAt   time.Time
}

func (overrideModel) TableName() string { return "availability_overrides" }

type reservationModel struct {
	ID                 string     `gorm:"primaryKey"`
	Code               string     `gorm:"not null;uniqueIndex:reservations_code_key"`
	GuestID            string     `gorm:"not null;index"`
	ListingID          string     `gorm:"not null;index:reservations_listing_status"`
	HostID             string     `gorm:"not null;index"`
	Mode               string     `gorm:"not null"`
	StartDate          *time.Time `gorm:"type:date"`
	EndDate            *time.Time `gorm:"type:date"`
	VisitDate          *time.Time `gorm:"type:date"`
	VisitTime          string
	Message            string
	QuoteNights        int
	Currency           string `gorm:"size:3"`
	BasePrice          int64
	Commission         int64
	TotalPrice         int64
	AmountDueNow       int64
	Status             string `gorm:"not null;index:reservations_listing_status"`
	ArrivalStatus      string `gorm:"not null"`
	HostPaymentStatus  string `gorm:"not null"`
	Archived           bool   `gorm:"not null;default:false"`
	CancellationReason string
	CancelledBy        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Version            int64 `gorm:"not null"`
}

func (reservationModel) TableName() string { return "reservations" }

type transactionModel struct {
	ID               string `gorm:"primaryKey"`
	ReservationID    string `gorm:"not null;index"`
	Method           string `gorm:"not null"`
	Amount           int64  `gorm:"not null"`
	Currency         string `gorm:"size:3;not null"`
	ProcessingStatus string `gorm:"not null"`
	SettlementStatus string `gorm:"not null"`
	Reference        string
	PayerName        string
	PayerNumber      string
	ReceiptURL       string
	RecordedBy       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int64 `gorm:"not null"`
}

func (transactionModel) TableName() string { return "transactions" }

// calendarLockModel has one row per listing; writers lock it FOR UPDATE.
type calendarLockModel struct {
	ListingID string `gorm:"primaryKey"`
}

func (calendarLockModel) TableName() string { return "calendar_locks" }

type outboxModel struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Payload     []byte
	OccurredAt  time.Time
	Aggregate   string
	Headers     []byte
	State       string    `gorm:"not null;index:outbox_due"`
	Attempts    int       `gorm:"not null;default:0"`
	NextAttempt time.Time `gorm:"column:next_attempt_at;index:outbox_due"`
	ClaimedBy   string
	ClaimedAt   *time.Time
	SentAt      *time.Time
	LastError   string
	CreatedAt   time.Time
}

func (outboxModel) TableName() string { return "app_outbox" }

type inboxModel struct {
	EventID    string `gorm:"primaryKey"`
	Consumer   string `gorm:"primaryKey"`
	ReceivedAt time.Time
}

func (inboxModel) TableName() string { return "app_inbox" }
