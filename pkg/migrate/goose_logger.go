package migrate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
)

// gooseLogger adapts goose's printf logging to the service logger.
type gooseLogger struct {
	ctx  context.Context
	logg *logger.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	if g.logg == nil {
		fmt.Println(msg)
		return
	}
	g.logg.Info(g.logg.WithField(g.ctx, "goose", msg), "migrate.goose")
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	err := fmt.Errorf(format, v...)
	if g.logg != nil {
		g.logg.Error(g.ctx, "migrate.goose_fatal", err)
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}
