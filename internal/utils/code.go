package utils

import (
	"crypto/rand"
)

// 招待コード用の文字集合。紛らわしい文字 (0/O, 1/I) は除く
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RandomCode は招待コードなどに使う長さ n のランダム文字列を返す
func RandomCode(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}
