package utils

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func GenerateNanoId(size int) string {
	id, err := gonanoid.Generate(idAlphabet, size)
	if err != nil {
		panic(err)
	}
	return id
}

func GenerateNanoIdWithPrefix(prefix string, size int) string {
	return fmt.Sprintf("%s_%s", prefix, GenerateNanoId(size))
}
