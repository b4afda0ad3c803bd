package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"

	"golang.org/x/crypto/bcrypt"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateID generates a unique ID with the given prefix, e.g. "usr-x8Fz01Qa3V".
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, randomString(10))
}

// GenerateOTP generates a 6-character alphanumeric one-time code.
func GenerateOTP() string {
	return randomString(6)
}

func randomString(length int) string {
	result := make([]byte, length)
	for i := range result {
		num, _ := rand.Int(rand.Reader, big.NewInt(int64(len(idCharset))))
		result[i] = idCharset[num.Int64()]
	}
	return string(result)
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword checks if a password matches a hash.
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// AvatarURL builds the default generated profile image for a new account.
func AvatarURL(username string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(username) +
		"&size=128&background=random&color=fff"
}
