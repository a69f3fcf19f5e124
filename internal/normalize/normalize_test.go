package normalize

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only whitespace", " \t\n ", ""},
		{"question mark", "Nasılsın?", "nasılsın"},
		{"hyphen survives", "iyi-kötü", "iyi-kötü"},
		{"parentheses survive", "(evet) [hayır]", "(evet) [hayır]"},
		{"whitespace collapse", "merhaba   dünya\n", "merhaba dünya"},
		{"newlines and tabs", "\tbir\n\niki  üç ", "bir iki üç"},
		{"all stripped marks", `a.b,c!d?e;f:g"h'i`, "abcdefghi"},
		{"punctuation between words", "evet . hayır", "evet hayır"},
		{"dotless capital I", "NASILSIN", "nasılsın"},
		{"dotted capital I", "İSTANBUL", "istanbul"},
		{"cedilla and breve", "ÇAĞRI ŞÖLEN ÜZÜM", "çağrı şölen üzüm"},
		{"mixed sentence", "Merhaba, nasılsın?", "merhaba nasılsın"},
		{"digits kept", "Saat 10:30'da", "saat 1030da"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeCaseInsensitive(t *testing.T) {
	want := Normalize("merhaba")
	assert.Equal(t, want, Normalize("Merhaba"))
	assert.Equal(t, want, Normalize("MERHABA"))
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"Merhaba, nasılsın?",
		"  İyi   günler!\n",
		"IĞDIR ve ISPARTA",
		`"Tırnak" içinde 'tek' ; iki : nokta`,
		"iyi-kötü (belki)",
		"ẞ groß Straße",
		"a . . . b",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestParse(t *testing.T) {
	n, err := Parse("tr")
	require.NoError(t, err)
	assert.Equal(t, language.Turkish, n.Tag())
	assert.Equal(t, "ısparta", n.Normalize("ISPARTA"))

	en, err := Parse("en")
	require.NoError(t, err)
	assert.Equal(t, "isparta", en.Normalize("ISPARTA"))

	_, err = Parse("not a tag!")
	assert.Error(t, err)
}

func TestNormalizeConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "nasılsın", Normalize("NASILSIN?"))
			}
		}()
	}
	wg.Wait()
}
