package security

import "golang.org/x/crypto/bcrypt"

type BcryptEncoder struct {
	Cost int
}

func NewBcryptEncoder() *BcryptEncoder {
	return &BcryptEncoder{Cost: bcrypt.DefaultCost}
}

func (e BcryptEncoder) GetPasswordHash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), e.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (e BcryptEncoder) IsMatching(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
