package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core"
	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core/supervisor"
	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/tests"
)

var principal = core.Principal{ID: "u1", Name: "Jane Admin", Email: "jane@example.com"}

func resetState() {
	db.Reset()
	mailSvc.Reset()
}

func profileWith(number, email string, edit func(p *supervisor.Profile)) supervisor.Profile {
	p := testutil.NewProfile(number, email)
	if edit != nil {
		edit(&p)
	}
	return p
}

func Test_home(t *testing.T) {
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome")
}

func Test_supervisorApi_query(t *testing.T) {
	resetState()
	token := getToken(t, principal)

	path := func(search, section, division, ordering string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if section != "" {
			v.Add("section", section)
		}
		if division != "" {
			v.Add("division", division)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		return "/v1/supervisors?" + v.Encode()
	}

	now := time.Now()
	s100 := testutil.CreateSupervisor(t, supRepo, profileWith("E100", "a@x.io", nil), now)
	s200 := testutil.CreateSupervisor(t, supRepo, profileWith("E200", "", func(p *supervisor.Profile) {
		p.FirstName = "Ann"
		p.Surname = "Perera"
		p.Section = "Finance"
		p.Division = "Accounts"
	}), now.Add(time.Hour))
	s050 := testutil.CreateSupervisor(t, supRepo, profileWith("E050", "ann.b@x.io", func(p *supervisor.Profile) {
		p.FirstName = "Bob"
		p.Division = "Accounts"
	}), now.Add(2*time.Hour))

	empty := []byte("[]")

	tests := []httpTest{
		{name: "Auth required", path: "/v1/supervisors", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get all", path: "/v1/supervisors", token: token, wantCode: http.StatusOK, wantData: marchallList(t, s050, s100, s200)},
		// filtering
		{name: "search (unknown)", path: path("lol", "", "", ""), token: token, wantCode: http.StatusOK, wantData: empty},
		{name: "search=ANN", path: path("ANN", "", "", ""), token: token, wantCode: http.StatusOK, wantData: marchallList(t, s050, s200)},
		{name: "search by number", path: path("e1", "", "", ""), token: token, wantCode: http.StatusOK, wantData: marchallList(t, s100)},
		{name: "section", path: path("", "finance", "", ""), token: token, wantCode: http.StatusOK, wantData: marchallList(t, s200)},
		{name: "division", path: path("", "", "ACCOUNTS", ""), token: token, wantCode: http.StatusOK, wantData: marchallList(t, s050, s200)},
		{name: "search + division", path: path("bob", "", "accounts", ""), token: token, wantCode: http.StatusOK, wantData: marchallList(t, s050)},
		// ordering
		{name: "ordering=-supervisor_number", path: path("", "", "", "-supervisor_number"), token: token, wantCode: http.StatusOK, wantData: marchallList(t, s200, s100, s050)},
		{name: "ordering=-created_at", path: path("", "", "", "-created_at"), token: token, wantCode: http.StatusOK, wantData: marchallList(t, s050, s200, s100)},
		{name: "ordering=first_name,supervisor_number", path: path("", "", "", "first_name,supervisor_number"), token: token, wantCode: http.StatusOK, wantData: marchallList(t, s200, s050, s100)},
		{name: "ordering (unknown field ignored)", path: path("", "", "", "lol"), token: token, wantCode: http.StatusOK, wantData: marchallList(t, s050, s100, s200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_supervisorApi_create(t *testing.T) {
	resetState()
	token := getToken(t, principal)
	testutil.CreateSupervisor(t, supRepo, profileWith("E100", "a@x.io", nil))

	required := []string{
		"first_name", "surname", "designation", "office_phone", "mobile_phone",
		"section", "division", "cost_centre_code", "group_name", "salary_grade",
	}
	missing := make(map[string]string, len(required))
	for _, fld := range required {
		missing[fld] = "this field is required"
	}

	tests := []httpTest{
		{name: "Auth required", body: marchallObj(t, profileWith("E300", "", nil)), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "missing fields", body: []byte(`{"supervisor_number": "E300"}`), token: token, wantCode: http.StatusBadRequest, wantData: marchallObj(t, missing)},
		{
			name: "invalid email", body: marchallObj(t, profileWith("E300", "not-an-email", nil)), token: token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": "invalid email format"}),
		},
		{
			name: "duplicate number", body: marchallObj(t, profileWith(" E100 ", "", nil)), token: token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"supervisor_number": supervisor.ErrNumberExists.Error()}),
		},
		{
			name: "duplicate email", body: marchallObj(t, profileWith("E300", "A@X.io", nil)), token: token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": supervisor.ErrEmailExists.Error()}),
		},
		{
			name: "valid", body: marchallObj(t, profileWith(" E300 ", " B@X.IO ", nil)), token: token,
			wantCode: http.StatusCreated, extra: profileWith("E300", "b@x.io", nil),
		},
		{
			name: "valid (no email, no title)", body: marchallObj(t, profileWith("E400", "", func(p *supervisor.Profile) { p.Title = "" })), token: token,
			wantCode: http.StatusCreated, extra: profileWith("E400", "", func(p *supervisor.Profile) { p.Title = "" }),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/supervisors", tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if want, ok := tt.extra.(supervisor.Profile); ok {
				require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				var got supervisor.Supervisor
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.NotEmpty(t, got.ID)
				assert.Equal(t, want, got.Profile)

				stored, err := supRepo.GetSupervisor(req.Context(), supervisor.GetFilter{Number: want.Number})
				require.NoError(t, err)
				assert.Equal(t, got.ID, stored.ID)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	// rejected requests never write
	sups, err := supRepo.QuerySupervisors(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, sups, 3)
}

func Test_supervisorApi_retrieve(t *testing.T) {
	resetState()
	token := getToken(t, principal)
	sup := testutil.CreateSupervisor(t, supRepo, profileWith("E100", "a@x.io", nil))

	tests := []httpTest{
		{name: "Auth required", path: "/v1/supervisors/" + sup.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "unknown", path: "/v1/supervisors/lol", token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "found", path: "/v1/supervisors/" + sup.ID, token: token, wantCode: http.StatusOK, wantData: marchallObj(t, sup)},
		{name: "trailing slash", path: "/v1/supervisors/" + sup.ID + "/", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, sup)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_supervisorApi_update(t *testing.T) {
	resetState()
	token := getToken(t, principal)
	s100 := testutil.CreateSupervisor(t, supRepo, profileWith("E100", "a@x.io", nil))
	s200 := testutil.CreateSupervisor(t, supRepo, profileWith("E200", "b@x.io", nil))

	tests := []httpTest{
		{name: "Auth required", path: "/v1/supervisors/" + s100.ID, body: []byte(`{}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "unknown", path: "/v1/supervisors/lol", body: []byte(`{}`), token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{
			name: "invalid email", path: "/v1/supervisors/" + s100.ID, body: []byte(`{"email": "nope"}`), token: token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": "invalid email format"}),
		},
		{
			name: "number taken", path: "/v1/supervisors/" + s100.ID, body: []byte(`{"supervisor_number": "E200"}`), token: token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"supervisor_number": supervisor.ErrNumberExists.Error()}),
		},
		{
			name: "email taken", path: "/v1/supervisors/" + s100.ID, body: []byte(`{"email": "B@x.io"}`), token: token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": supervisor.ErrEmailExists.Error()}),
		},
		{
			name: "partial", path: "/v1/supervisors/" + s100.ID, body: []byte(`{"designation": " Manager ", "section": ""}`), token: token,
			wantCode: http.StatusOK, extra: profileWith("E100", "a@x.io", func(p *supervisor.Profile) { p.Designation = "Manager" }),
		},
		{
			name: "same number & email", path: "/v1/supervisors/" + s100.ID, body: []byte(`{"supervisor_number": "E100", "email": "a@x.io"}`), token: token,
			wantCode: http.StatusOK, extra: profileWith("E100", "a@x.io", func(p *supervisor.Profile) { p.Designation = "Manager" }),
		},
		{
			name: "full", path: "/v1/supervisors/" + s100.ID, body: marchallObj(t, profileWith("E101", "c@x.io", func(p *supervisor.Profile) { p.Surname = "Silva" })), token: token,
			wantCode: http.StatusOK, extra: profileWith("E101", "c@x.io", func(p *supervisor.Profile) { p.Surname = "Silva" }),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if want, ok := tt.extra.(supervisor.Profile); ok {
				require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				var got supervisor.Supervisor
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, s100.ID, got.ID)
				assert.Equal(t, want, got.Profile)
				assert.True(t, s100.CreatedAt.Equal(got.CreatedAt))
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	// the other record is untouched
	got, err := supRepo.GetSupervisor(context.Background(), supervisor.GetFilter{ID: s200.ID})
	require.NoError(t, err)
	assert.Equal(t, s200, got)
}

func Test_supervisorApi_destroy(t *testing.T) {
	resetState()
	token := getToken(t, principal)
	s100 := testutil.CreateSupervisor(t, supRepo, profileWith("E100", "a@x.io", nil))
	s200 := testutil.CreateSupervisor(t, supRepo, profileWith("E200", "", nil))

	tests := []httpTest{
		{name: "Auth required", path: "/v1/supervisors/" + s100.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "unknown", path: "/v1/supervisors/lol", token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "deleted", path: "/v1/supervisors/" + s100.ID, token: token, wantCode: http.StatusNoContent},
		{name: "already deleted", path: "/v1/supervisors/" + s100.ID, token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodDelete, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	sups, err := supRepo.QuerySupervisors(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []supervisor.Supervisor{s200}, sups)
}

func Test_supervisorApi_upload(t *testing.T) {
	resetState()
	token := getToken(t, principal)
	const path = "/v1/supervisors/upload"

	// mixed-case headers
	headers := make([]string, 0, len(supervisor.Columns))
	for _, h := range supervisor.Headers() {
		headers = append(headers, " "+strings.ToLower(h)+" ")
	}
	rowOf := func(p supervisor.Profile) []string { return p.Values() }

	valid := profileWith("E100", "a@x.io", nil)
	incomplete := profileWith("E300", "", func(p *supervisor.Profile) {
		p.Surname = ""
		p.Section = "  "
	})
	badEmail := profileWith("E400", "not-an-email", nil)
	file := testutil.Workbook(t, headers, rowOf(valid), rowOf(incomplete), rowOf(badEmail))

	rowData := func(p supervisor.Profile) supervisor.Row {
		raw := make(supervisor.RawRow, len(headers))
		for i, h := range headers {
			raw[h] = rowOf(p)[i]
		}
		return supervisor.Normalize(raw)
	}
	wantSummary := supervisor.UploadSummary{
		Message:      supervisor.UploadMessage,
		SuccessCount: 1,
		FailedCount:  2,
		FailedRows: []supervisor.FailedRow{
			{Row: 3, Reason: "missing required fields: SUPERVISOR_SURNAME, SUPERVISOR_SECTION", RowData: rowData(incomplete)},
			{Row: 4, Reason: supervisor.ReasonInvalidEmail, RowData: rowData(badEmail)},
		},
	}

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newUploadRequest(t, path, "", "sups.xlsx", file)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("no file", func(t *testing.T) {
		req, rec := newUploadRequest(t, path, token, "", nil)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"file": "a spreadsheet file is required"}),
		}, rec)
	})

	t.Run("not a spreadsheet", func(t *testing.T) {
		req, rec := newUploadRequest(t, path, token, "sups.xlsx", []byte("SUPERVISOR_NUMBER\nE100\n"))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"file": "file is not an Excel (.xlsx) spreadsheet"}),
		}, rec)
	})

	t.Run("too large", func(t *testing.T) {
		req, rec := newUploadRequest(t, path, token, "big.xlsx", bytes.Repeat([]byte("x"), 2<<20))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusRequestEntityTooLarge,
			wantData: marchallObj(t, httpErr{Error: http.StatusText(http.StatusRequestEntityTooLarge)}),
		}, rec)
	})

	sups, err := supRepo.QuerySupervisors(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Empty(t, sups, "rejected uploads never write")

	t.Run("processed", func(t *testing.T) {
		req, rec := newUploadRequest(t, path, token, "sups.xlsx", file)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, wantSummary)}, rec)

		sent := mailSvc.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, principal.Email, sent[0].To[0].Address)
		assert.Contains(t, sent[0].TextContent, "sups.xlsx")
		assert.Contains(t, sent[0].TextContent, "row 4: invalid email format")
	})

	t.Run("re-upload is idempotent", func(t *testing.T) {
		req, rec := newUploadRequest(t, path, token, "sups.xlsx", file)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, wantSummary)}, rec)

		sups, err := supRepo.QuerySupervisors(context.Background(), nil, nil)
		require.NoError(t, err)
		require.Len(t, sups, 1)
		assert.Equal(t, valid, sups[0].Profile)
	})

	t.Run("email conflict", func(t *testing.T) {
		moved := profileWith("E100", "a@x.io", func(p *supervisor.Profile) { p.Designation = "Manager" })
		thief := profileWith("E200", "A@X.IO", nil)
		data := testutil.Workbook(t, supervisor.Headers(), rowOf(thief), rowOf(moved))

		req, rec := newUploadRequest(t, path, token, "conflict.xlsx", data)
		app.ServeHTTP(rec, req)

		want := supervisor.UploadSummary{
			Message:      supervisor.UploadMessage,
			SuccessCount: 1,
			FailedCount:  1,
			FailedRows: []supervisor.FailedRow{
				{Row: 2, Reason: supervisor.ReasonEmailInUse, RowData: supervisor.Normalize(testutil.RawRow(thief))},
			},
		}
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, want)}, rec)

		sups, err := supRepo.QuerySupervisors(context.Background(), nil, nil)
		require.NoError(t, err)
		require.Len(t, sups, 1)
		assert.Equal(t, moved, sups[0].Profile)
	})

	t.Run("header only", func(t *testing.T) {
		req, rec := newUploadRequest(t, path, token, "empty.xlsx", testutil.Workbook(t, supervisor.Headers()))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, supervisor.UploadSummary{Message: supervisor.UploadMessage, FailedRows: []supervisor.FailedRow{}}),
		}, rec)
	})

	t.Run("no EMAIL column", func(t *testing.T) {
		noEmail := []string{"SUPERVISOR_NUMBER", "SUPERVISOR_SURNAME"}
		req, rec := newUploadRequest(t, path, token, "noemail.xlsx", testutil.Workbook(t, noEmail, []string{"E900", "Doe"}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"file": "spreadsheet has no EMAIL column"}),
		}, rec)

		_, err := supRepo.GetSupervisor(context.Background(), supervisor.GetFilter{Number: "E900"})
		assert.ErrorIs(t, err, supervisor.ErrNotFound)
	})

	t.Run("blank row keeps line numbers", func(t *testing.T) {
		first := profileWith("E500", "", nil)
		noSurname := profileWith("E600", "", func(p *supervisor.Profile) { p.Surname = "" })
		data := testutil.Workbook(t, supervisor.Headers(), rowOf(first), []string{}, rowOf(noSurname))

		req, rec := newUploadRequest(t, path, token, "gaps.xlsx", data)
		app.ServeHTTP(rec, req)

		want := supervisor.UploadSummary{
			Message:      supervisor.UploadMessage,
			SuccessCount: 1,
			FailedCount:  1,
			FailedRows: []supervisor.FailedRow{
				{Row: 4, Reason: "missing required fields: SUPERVISOR_SURNAME", RowData: supervisor.Normalize(testutil.RawRow(noSurname))},
			},
		}
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, want)}, rec)
	})
}

func Test_supervisorApi_template(t *testing.T) {
	resetState()

	req, rec := newAuthRequest(http.MethodGet, "/v1/supervisors/upload-template", getToken(t, principal))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "supervisors_template.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Equal(t, [][]string{supervisor.Headers()}, rows)
}

func Test_supervisorApi_export(t *testing.T) {
	resetState()
	token := getToken(t, principal)
	s200 := testutil.CreateSupervisor(t, supRepo, profileWith("E200", "", nil))
	s100 := testutil.CreateSupervisor(t, supRepo, profileWith("E100", "a@x.io", nil))

	req, rec := newAuthRequest(http.MethodGet, "/v1/supervisors/export", token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	exported := rec.Body.Bytes()

	f, err := excelize.OpenReader(bytes.NewReader(exported))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, supervisor.Headers(), rows[0])
	assert.Equal(t, "E100", rows[1][0])
	assert.Equal(t, "E200", rows[2][0])

	// exports round-trip through upload
	req, rec = newUploadRequest(t, "/v1/supervisors/upload", token, "supervisors.xlsx", exported)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, supervisor.UploadSummary{Message: supervisor.UploadMessage, SuccessCount: 2, FailedRows: []supervisor.FailedRow{}}),
	}, rec)

	sups, err := supRepo.QuerySupervisors(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, sups, 2)
	assert.Equal(t, s100.Profile, sups[0].Profile)
	assert.Equal(t, s200.Profile, sups[1].Profile)
}
