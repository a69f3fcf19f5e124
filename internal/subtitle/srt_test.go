package subtitle

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "\uFEFF1\r\n" +
	"00:00:01,000 --> 00:00:03,500\r\n" +
	"Merhaba, nasılsın?\r\n" +
	"\r\n" +
	"2\r\n" +
	"00:00:04.250 --> 00:00:07.000\r\n" +
	"<i>İyiyim,</i>\r\n" +
	"teşekkürler.\r\n" +
	"\r\n" +
	"3\r\n" +
	"00:00:08,000 --> 00:00:09,000\r\n" +
	"<b></b>\r\n" +
	"\r\n" +
	"4\r\n" +
	"01:02:03,4 --> 01:02:05,000\r\n" +
	"Son   söz\r\n"

func TestParse(t *testing.T) {
	cues, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, cues, 3)

	assert.Equal(t, Cue{Index: 1, Start: time.Second, End: 3500 * time.Millisecond, Text: "Merhaba, nasılsın?"}, cues[0])

	assert.Equal(t, 2, cues[1].Index)
	assert.Equal(t, 4250*time.Millisecond, cues[1].Start)
	assert.Equal(t, "İyiyim, teşekkürler.", cues[1].Text)

	// Cue 3 has no text left after removing tags
	assert.Equal(t, 4, cues[2].Index)
	assert.Equal(t, time.Hour+2*time.Minute+3*time.Second+400*time.Millisecond, cues[2].Start)
	assert.Equal(t, "Son söz", cues[2].Text)
	assert.Equal(t, 1600*time.Millisecond, cues[2].Duration())
}

func TestParse_MissingIndex(t *testing.T) {
	cues, err := Parse(strings.NewReader("00:00:01,000 --> 00:00:02,000\nbir\n\n00:00:03,000 --> 00:00:04,000\niki\n"))
	require.NoError(t, err)
	require.Len(t, cues, 2)
	assert.Equal(t, 1, cues[0].Index)
	assert.Equal(t, 2, cues[1].Index)
	assert.Equal(t, "iki", cues[1].Text)
}

func TestParse_Empty(t *testing.T) {
	cues, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, cues)
}

func TestParse_EndBeforeStart(t *testing.T) {
	_, err := Parse(strings.NewReader("1\n00:00:05,000 --> 00:00:02,000\nters\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"00:00:00,000", 0, false},
		{"00:01:02,003", time.Minute + 2*time.Second + 3*time.Millisecond, false},
		{"10:00:00.5", 10*time.Hour + 500*time.Millisecond, false},
		{"00:00:01", time.Second, false},
		{"00:01", 0, true},
		{"aa:00:00,000", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatClock(0))
	assert.Equal(t, "00:00:01", FormatClock(1999*time.Millisecond))
	assert.Equal(t, "01:02:03", FormatClock(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "27:00:00", FormatClock(27*time.Hour))
	assert.Equal(t, "00:00:00", FormatClock(-time.Second))
}
