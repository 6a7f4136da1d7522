package sqlstore

import (
	"github.com/ValentinKolb/sKV/lib/codec"
)

func normalize(v any) (any, error) {
	return codec.Normalize(v)
}

// normalizeText returns the stored text of a decoded value
func normalizeText(v any) (string, error) {
	return codec.Default().Encode(v)
}
