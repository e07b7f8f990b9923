package engine

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"

	sqlite "modernc.org/sqlite"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterVectorFunctions registers vec_cosine_distance with the driver so it
// is available on new connections opened after this call. It is idempotent.
//
//	vec_cosine_distance(a, b) 1 - cosine similarity of a and b
//
// Arguments are little-endian float32 BLOBs. The function returns NULL when
// either vector has zero magnitude, so such rows never satisfy a comparison.
func RegisterVectorFunctions() error {
	registerOnce.Do(func() {
		err := sqlite.RegisterDeterministicScalarFunction("vec_cosine_distance", 2, vecCosineDistanceImpl)
		if err != nil && !strings.Contains(err.Error(), "already registered") {
			registerErr = fmt.Errorf("engine: registering vec_cosine_distance: %w", err)
		}
	})
	return registerErr
}

func asEmbedding(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return decodeEmbedding(v)
	default:
		return nil, fmt.Errorf("vec: unsupported argument type %T for embedding; want BLOB", arg)
	}
}

func embeddingArgs(name string, args []driver.Value) ([]float32, []float32, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("%s: expected 2 arguments, got %d", name, len(args))
	}
	a, err := asEmbedding(args[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := asEmbedding(args[1])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func vecCosineDistanceImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := embeddingArgs("vec_cosine_distance", args)
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	sim, ok, err := cosine(a, b)
	if err != nil || !ok {
		return nil, err
	}
	return 1 - sim, nil
}

// Local minimal helpers; the vector package depends on engine, not the
// other way round.
func decodeEmbedding(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vec: invalid embedding blob length %d", len(b))
	}
	n := len(b) / 4
	v := make([]float32, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// cosine returns ok=false when either vector has zero magnitude.
func cosine(a, b []float32) (float64, bool, error) {
	if len(a) != len(b) {
		return 0, false, fmt.Errorf("vec: cosine dim mismatch %d vs %d", len(a), len(b))
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, false, nil
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), true, nil
}
