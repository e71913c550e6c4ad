package testutil

import (
	"context"
	"net/http"
	"time"

	id "filetrack/pkg/domain"
	"filetrack/pkg/requestcontext"
)

// HeaderAdministrationID mirrors the header the acting-administration middleware reads.
const HeaderAdministrationID = "X-Administration-ID"

// AsAdministration sets the acting administration header, as the fronting gateway
// would for an authenticated staff member.
func AsAdministration(req *http.Request, adminID string) *http.Request {
	req.Header.Set(HeaderAdministrationID, adminID)
	return req
}

// ActingContext returns a context carrying an acting administration and a fixed
// request time, the state services expect after the HTTP middleware ran.
func ActingContext(adminID id.AdministrationID, now time.Time) context.Context {
	ctx := requestcontext.WithAdministrationID(context.Background(), adminID)
	return requestcontext.WithTime(ctx, now)
}

// As switches the acting administration on an existing context.
func As(ctx context.Context, adminID id.AdministrationID) context.Context {
	return requestcontext.WithAdministrationID(ctx, adminID)
}
