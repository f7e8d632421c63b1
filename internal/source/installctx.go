package source

import (
	"context"

	"github.com/mealscan/entitled/internal/errs"
	"github.com/mealscan/entitled/internal/model"
)

type ctxKey string

const installMetaKey ctxKey = "entitled.installMeta"

// WithInstallMetadata stores the caller-reported install metadata in the
// context. The transport layer fills it from request headers.
func WithInstallMetadata(ctx context.Context, md model.InstallMetadata) context.Context {
	return context.WithValue(ctx, installMetaKey, md)
}

// InstallMetadataFromCtx fetches install metadata from the context.
func InstallMetadataFromCtx(ctx context.Context) (model.InstallMetadata, bool) {
	v := ctx.Value(installMetaKey)
	if v == nil {
		return model.InstallMetadata{}, false
	}
	md, ok := v.(model.InstallMetadata)
	return md, ok
}

// ContextProvider reads install metadata carried on the request context.
type ContextProvider struct{}

// Metadata returns the context-carried metadata, or ErrNotFound when the
// request reported none (the install check then simply cannot confirm).
func (ContextProvider) Metadata(ctx context.Context) (model.InstallMetadata, error) {
	md, ok := InstallMetadataFromCtx(ctx)
	if !ok {
		return model.InstallMetadata{}, errs.ErrNotFound
	}
	return md, nil
}

var _ MetadataProvider = ContextProvider{}
