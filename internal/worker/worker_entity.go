package worker

import "time"

type Worker struct {
	Seq           int64      `gorm:"primaryKey;autoIncrement"`
	WorkerID      string     `gorm:"column:worker_id;size:32;not null;uniqueIndex:uq_workers_worker_id"`
	Name          string     `gorm:"size:255;not null"`
	FatherName    string     `gorm:"size:255"`
	HolderName    string     `gorm:"size:255"`
	MaritalStatus string     `gorm:"size:16"`
	Gender        string     `gorm:"size:16"`
	DateOfBirth   *time.Time `gorm:"type:date"`
	DateOfJoining *time.Time `gorm:"type:date"`
	Department    string     `gorm:"size:128;index"`
	Designation   string     `gorm:"size:128"`
	Site          string     `gorm:"size:128"`
	MobileNumber  string     `gorm:"size:10"`
	AadharNumber  string     `gorm:"size:12;not null;uniqueIndex:uq_workers_aadhar_number"`
	AccountNumber string     `gorm:"size:32"`
	IFSC          string     `gorm:"column:ifsc;size:11"`
	BankName      string     `gorm:"size:128"`
	Remarks       string

	IdentityProofDocument *string
	TaxProofDocument      *string
	BankProofDocument     *string
	PhotoFront            *string
	PhotoLeft             *string
	PhotoRight            *string

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (Worker) TableName() string {
	return "workers"
}
