package patient

import "time"

// Patient is one registry entry. PatientID is the business identifier
// handed out to callers; it never changes after registration.
type Patient struct {
	PatientID  string    `json:"patient_id"`
	Name       string    `json:"name"`
	Age        int       `json:"age,omitempty"`
	Gender     string    `json:"gender,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	MRN        string    `json:"mrn,omitempty"`
	Department string    `json:"department,omitempty"`
	Diagnosis  string    `json:"diagnosis,omitempty"`
	Doctor     string    `json:"doctor,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}
