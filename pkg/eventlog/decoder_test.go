package eventlog

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderNext(t *testing.T) {
	t.Run("ReadsRecordsInOrder", func(t *testing.T) {
		input := `{"Event":"SparkListenerLogStart","Spark Version":"3.1.1"}
{"Event":"SparkListenerApplicationStart","App Name":"job","App ID":"app-1","Timestamp":100,"User":"alice"}
`
		dec := NewDecoder(strings.NewReader(input))

		rec, err := dec.Next()
		require.NoError(t, err)
		assert.Equal(t, KindLogStart, rec.Kind)

		rec, err = dec.Next()
		require.NoError(t, err)
		assert.Equal(t, KindApplicationStart, rec.Kind)

		_, err = dec.Next()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("SkipsBlankLines", func(t *testing.T) {
		input := "\n\n{\"Event\":\"SparkListenerApplicationEnd\",\"Timestamp\":200}\n\n"
		dec := NewDecoder(strings.NewReader(input))

		rec, err := dec.Next()
		require.NoError(t, err)
		assert.Equal(t, KindApplicationEnd, rec.Kind)

		_, err = dec.Next()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("BadJSONIsRecoverable", func(t *testing.T) {
		input := "{not json}\n{\"Event\":\"SparkListenerApplicationEnd\",\"Timestamp\":200}\n"
		dec := NewDecoder(strings.NewReader(input))

		_, err := dec.Next()
		var recErr *RecordError
		require.ErrorAs(t, err, &recErr)
		assert.Equal(t, 1, recErr.Line)

		// The scan continues past the bad line.
		rec, err := dec.Next()
		require.NoError(t, err)
		assert.Equal(t, KindApplicationEnd, rec.Kind)
	})

	t.Run("MissingDiscriminantIsRecoverable", func(t *testing.T) {
		dec := NewDecoder(strings.NewReader(`{"Timestamp":5}` + "\n"))

		_, err := dec.Next()
		var recErr *RecordError
		require.ErrorAs(t, err, &recErr)
	})

	t.Run("LineTooLong", func(t *testing.T) {
		dec := NewDecoder(strings.NewReader(`{"Event":"X","pad":"` + strings.Repeat("a", 100) + `"}`))
		dec.SetMaxLineBytes(32)

		_, err := dec.Next()
		assert.True(t, errors.Is(err, ErrLineTooLong))
	})

	t.Run("LastLineWithoutNewline", func(t *testing.T) {
		dec := NewDecoder(strings.NewReader(`{"Event":"SparkListenerApplicationEnd","Timestamp":7}`))

		rec, err := dec.Next()
		require.NoError(t, err)
		assert.Equal(t, KindApplicationEnd, rec.Kind)
	})
}
