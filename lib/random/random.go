package random

import (
	"time"

	"golang.org/x/exp/rand"
)

func init() {
	rand.Seed(uint64(time.Now().UnixNano()))
}

// Value returns random value in range of [a[0],a[1]]
func Value(a []int) int {
	m, n := a[0], a[1]
	return rand.Intn(n-m+1) + m
}

// Element returns random element of a
func Element[T any](a []T) T {
	return a[Value([]int{0, len(a) - 1})]
}

// ByteSlice returns slice of [1,n] random bytes
func ByteSlice(n int) []byte {
	data := make([]byte, Value([]int{1, n}))
	for x := range data {
		data[x] = byte(rand.Intn(256))
	}
	return data
}
