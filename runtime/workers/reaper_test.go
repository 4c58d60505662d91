package workers

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Reaper_Rejects_Invalid_Cron(t *testing.T) {
	req := require.New(t)

	_, err := NewReaperWorker(slog.Default(), nil, "every hour")
	req.Error(err)

	_, err = NewReaperWorker(slog.Default(), nil, "0 * * * *")
	req.NoError(err)
}
