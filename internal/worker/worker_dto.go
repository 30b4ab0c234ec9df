package worker

import "time"

// RegisterRequest carries the text fields of the registration form.
type RegisterRequest struct {
	Name          string `form:"name" json:"name" binding:"required,max=255"`
	FatherName    string `form:"fatherName" json:"fatherName" binding:"required,max=255"`
	HolderName    string `form:"holderName" json:"holderName" binding:"omitempty,max=255"`
	MaritalStatus string `form:"maritalStatus" json:"maritalStatus" binding:"required,oneof=Married Unmarried"`
	Gender        string `form:"gender" json:"gender" binding:"required,oneof=Male Female Other"`
	DateOfBirth   string `form:"dateOfBirth" json:"dateOfBirth" binding:"omitempty,datetime=2006-01-02"`
	DateOfJoining string `form:"dateOfJoining" json:"dateOfJoining" binding:"omitempty,datetime=2006-01-02"`
	Department    string `form:"department" json:"department" binding:"omitempty,max=128"`
	Designation   string `form:"designation" json:"designation" binding:"omitempty,max=128"`
	Site          string `form:"site" json:"site" binding:"omitempty,max=128"`
	MobileNumber  string `form:"mobileNumber" json:"mobileNumber" binding:"required,len=10,digits"`
	AadharNumber  string `form:"aadharNumber" json:"aadharNumber" binding:"required,len=12,digits"`
	AccountNumber string `form:"accountNumber" json:"accountNumber" binding:"omitempty,max=32,digits"`
	IFSC          string `form:"ifsc" json:"ifsc" binding:"omitempty,ifsc"`
	BankName      string `form:"bankName" json:"bankName" binding:"omitempty,max=128"`
	Remarks       string `form:"remarks" json:"remarks"`
}

// RegisterFiles holds staged upload paths. Empty entries mean "not supplied".
type RegisterFiles struct {
	AadharFront string
	AadharBack  string
	PANCard     []string
	BankDetail  []string
	PhotoFront  string
	PhotoLeft   string
	PhotoRight  string
}

type ListQuery struct {
	Name         string `form:"name"`
	AadharNumber string `form:"aadharNumber"`
	MobileNumber string `form:"mobileNumber"`
	Department   string `form:"department"`
	Designation  string `form:"designation"`
	Site         string `form:"site"`
	SortBy       string `form:"sort_by"`
	SortDir      string `form:"sort_dir" binding:"omitempty,oneof=asc desc"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func (q ListQuery) Filter() Filter {
	return Filter{
		Name:         q.Name,
		AadharNumber: q.AadharNumber,
		MobileNumber: q.MobileNumber,
		Department:   q.Department,
		Designation:  q.Designation,
		Site:         q.Site,
	}
}

type WorkerResponse struct {
	WorkerID      string  `json:"workerID"`
	Name          string  `json:"name"`
	FatherName    string  `json:"fatherName"`
	HolderName    string  `json:"holderName"`
	MaritalStatus string  `json:"maritalStatus"`
	Gender        string  `json:"gender"`
	DateOfBirth   *string `json:"dateOfBirth"`
	DateOfJoining *string `json:"dateOfJoining"`
	Department    string  `json:"department"`
	Designation   string  `json:"designation"`
	Site          string  `json:"site"`
	MobileNumber  string  `json:"mobileNumber"`
	AadharNumber  string  `json:"aadharNumber"`
	AccountNumber string  `json:"accountNumber"`
	IFSC          string  `json:"ifsc"`
	BankName      string  `json:"bankName"`
	Remarks       string  `json:"remarks"`

	IdentityProofDocument *string `json:"identityProofDocument"`
	TaxProofDocument      *string `json:"taxProofDocument"`
	BankProofDocument     *string `json:"bankProofDocument"`
	PhotoFront            *string `json:"photoFront"`
	PhotoLeft             *string `json:"photoLeft"`
	PhotoRight            *string `json:"photoRight"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ListResult struct {
	Items    []WorkerResponse
	Total    int64
	Page     int
	PageSize int
}

type NextIDResponse struct {
	WorkerID string `json:"workerID"`
}
