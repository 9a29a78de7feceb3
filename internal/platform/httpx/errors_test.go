package httpx_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/textileco/pettycash/internal/platform/httpx"
	"github.com/textileco/pettycash/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: lines required", shared.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: purchase rejected", shared.ErrInvalidState), http.StatusConflict},
		{fmt.Errorf("%w: not assigned runner", shared.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: purchase", shared.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: order_no exists", shared.ErrConflict), http.StatusConflict},
		{shared.ErrUnauthorized, http.StatusUnauthorized},
		{&pgconn.PgError{Code: "23505", Detail: "Key (email) already exists."}, http.StatusConflict},
		{&pgconn.PgError{Code: "23503"}, http.StatusNotFound},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		httpx.RespondError(rr, tc.err)
		require.Equal(t, tc.status, rr.Code, tc.err.Error())

		var body httpx.ProblemDetail
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Equal(t, tc.status, body.Status)
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	httpx.RespondError(rr, fmt.Errorf("dial tcp: secret host"))

	var body httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Empty(t, body.Detail)
}
