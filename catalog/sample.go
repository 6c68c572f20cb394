package catalog

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/opd-ai/envelope/cryptoerr"
)

// RandIntn returns a uniform integer in [0, n) read from rnd. A nil rnd uses
// crypto/rand.
func RandIntn(rnd io.Reader, n int) (int, error) {
	if n <= 0 {
		return 0, cryptoerr.Logicf("random bound %d must be positive", n)
	}
	if rnd == nil {
		rnd = rand.Reader
	}
	v, err := rand.Int(rnd, big.NewInt(int64(n)))
	if err != nil {
		return 0, cryptoerr.Crypto("draw random integer", err)
	}
	return int(v.Int64()), nil
}

// Sample returns n distinct elements of variants in uniformly random order.
// The input is not modified.
func Sample[T any](rnd io.Reader, variants []T, n int) ([]T, error) {
	if n < 0 || n > len(variants) {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrSampleSize, "want %d of %d", n, len(variants))
	}
	pool := make([]T, len(variants))
	copy(pool, variants)

	for i := 0; i < n; i++ {
		j, err := RandIntn(rnd, len(pool)-i)
		if err != nil {
			return nil, err
		}
		j += i
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n:n], nil
}

// Pick returns one uniformly random element of variants.
func Pick[T any](rnd io.Reader, variants []T) (T, error) {
	var zero T
	picked, err := Sample(rnd, variants, 1)
	if err != nil {
		return zero, err
	}
	if len(picked) == 0 {
		return zero, cryptoerr.Wrapf(cryptoerr.ErrSampleSize, "empty variant set")
	}
	return picked[0], nil
}
