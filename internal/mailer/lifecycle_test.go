package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "portal-mailer/pkg/domain-errors"
)

func TestLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("init registers listener and caches globals", func(t *testing.T) {
		fp := newTestPortal()
		svc := newTestGuard(t, fp, &fakeSender{})

		require.NoError(t, svc.Init(ctx))

		initialized, lastErr := svc.Health()
		assert.True(t, initialized)
		assert.NoError(t, lastErr)
		assert.Equal(t, []string{"mailer http://portal-mailer:3003/"}, fp.registered)
	})

	t.Run("registration failure aborts startup", func(t *testing.T) {
		fp := newTestPortal()
		fp.registerErr = derrors.New(derrors.CodeUpstreamUnavailable, "PUT webhooks/listeners/mailer returned status 502, expected 200")
		svc := newTestGuard(t, fp, &fakeSender{})

		err := svc.Init(ctx)
		require.Error(t, err)
		assert.True(t, derrors.Is(err, derrors.CodeUpstreamUnavailable))

		initialized, _ := svc.Health()
		assert.False(t, initialized)
	})

	t.Run("globals failure aborts startup", func(t *testing.T) {
		fp := newTestPortal()
		fp.globalsErr = derrors.New(derrors.CodeUpstreamUnavailable, "GET globals returned unexpected status 500")
		svc := newTestGuard(t, fp, &fakeSender{})

		require.Error(t, svc.Init(ctx))
		initialized, _ := svc.Health()
		assert.False(t, initialized)
	})

	t.Run("invalid sender email aborts startup", func(t *testing.T) {
		fp := newTestPortal()
		fp.globals.Mailer.SenderEmail = "not-an-address"
		svc := newTestGuard(t, fp, &fakeSender{})

		err := svc.Init(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sender email")
	})

	t.Run("invalid addresses are tolerated when the mailer is off", func(t *testing.T) {
		fp := newTestPortal()
		fp.globals.Mailer.UseMailer = false
		fp.globals.Mailer.SenderEmail = ""
		fp.globals.Mailer.AdminEmail = ""
		svc := newTestGuard(t, fp, &fakeSender{})

		assert.NoError(t, svc.Init(ctx))
	})

	t.Run("deinit deregisters the listener", func(t *testing.T) {
		fp := newTestPortal()
		svc := newTestGuard(t, fp, &fakeSender{})
		require.NoError(t, svc.Init(ctx))

		require.NoError(t, svc.Deinit(ctx))
		assert.Equal(t, []string{"mailer"}, fp.deleted)
	})

	t.Run("deinit surfaces the deregistration error", func(t *testing.T) {
		fp := newTestPortal()
		fp.deleteErr = derrors.New(derrors.CodeUpstreamUnavailable, "DELETE webhooks/listeners/mailer returned status 500, expected 204")
		svc := newTestGuard(t, fp, &fakeSender{})
		require.NoError(t, svc.Init(ctx))

		assert.Error(t, svc.Deinit(ctx))
	})
}
