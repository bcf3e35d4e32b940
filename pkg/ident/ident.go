// Package ident generates the human-readable identifiers used for patients
// and bills. Identifiers are a fixed prefix plus a fixed-width random suffix
// and need no coordination between server instances.
package ident

import (
	"crypto/rand"
	"regexp"

	"github.com/google/uuid"
)

const (
	patientPrefix = "PT-"
	billPrefix    = "B-"
	suffixLen     = 10
)

// Crockford base32: no I, L, O, U, so identifiers stay unambiguous when
// read over the phone or typed from a printed bill.
const alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	// PatientIDPattern matches identifiers produced by NewPatientID.
	PatientIDPattern = regexp.MustCompile(`^PT-[0-9A-HJKMNP-TV-Z]{10}$`)
	// BillIDPattern matches identifiers produced by NewBillID.
	BillIDPattern = regexp.MustCompile(`^B-[0-9A-HJKMNP-TV-Z]{10}$`)
)

// NewPatientID returns a fresh patient identifier, e.g. "PT-9M4KQ02XWD".
func NewPatientID() string {
	return patientPrefix + suffix()
}

// NewBillID returns a fresh bill identifier, e.g. "B-1C7TRY58ZN".
func NewBillID() string {
	return billPrefix + suffix()
}

func suffix() string {
	buf := make([]byte, suffixLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is effectively unheard of; fall back to the
		// random bytes of a v4 UUID rather than surfacing an error from
		// identifier generation.
		u := uuid.New()
		copy(buf, u[:])
	}
	out := make([]byte, suffixLen)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out)
}
