package idcard

// CardView is what the printable card shows. Dates use DisplayDateLayout.
type CardView struct {
	WorkerID      string  `json:"workerID"`
	Name          string  `json:"name"`
	FatherName    string  `json:"fatherName"`
	Department    string  `json:"department"`
	Designation   string  `json:"designation"`
	Site          string  `json:"site"`
	MobileNumber  string  `json:"mobileNumber"`
	DateOfBirth   string  `json:"dateOfBirth"`
	DateOfJoining string  `json:"dateOfJoining"`
	PhotoURL      *string `json:"photoURL"`
}
