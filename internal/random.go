package internal

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	otpMin  = 100000
	otpSpan = 900000
)

var otpSpanBig = big.NewInt(otpSpan)

// NewOTP returns a uniformly random six-digit code in [100000, 999999].
func NewOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpanBig)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(otpMin+n.Int64(), 10), nil
}
