package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  RawRow
		want Row
	}{
		{name: "empty", raw: RawRow{}, want: Row{}},
		{
			name: "headers upper-cased and trimmed",
			raw:  RawRow{" supervisor_number ": " E100 ", "Email": "A@X.com "},
			want: Row{"SUPERVISOR_NUMBER": "E100", "EMAIL": "A@X.com"},
		},
		{
			name: "blank header dropped",
			raw:  RawRow{"  ": "x", "EMAIL": "a@x.com"},
			want: Row{"EMAIL": "a@x.com"},
		},
		{
			name: "colliding headers: first non-empty value wins",
			raw:  RawRow{"EMAIL": "", "Email": "b@x.com", "email": "c@x.com"},
			want: Row{"EMAIL": "b@x.com"},
		},
		{
			name: "unknown headers kept",
			raw:  RawRow{"Notes": "n/a"},
			want: Row{"NOTES": "n/a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestLookupColumn(t *testing.T) {
	col, ok := LookupColumn(" supervisor_salary_grade")
	assert.True(t, ok)
	assert.Equal(t, ColSalaryGrade, col)

	_, ok = LookupColumn("SALARY")
	assert.False(t, ok)
}

func TestCheckHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		wantErr error
	}{
		{name: "canonical", headers: Headers()},
		{name: "email only, any casing", headers: []string{" Email "}},
		{name: "no headers", headers: nil, wantErr: ErrNoEmailColumn},
		{name: "no EMAIL column", headers: []string{"SUPERVISOR_NUMBER", "E-MAIL", "SUPERVISOR_EMAIL"}, wantErr: ErrNoEmailColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, CheckHeaders(tt.headers))
		})
	}
}

func TestRawRow_IsBlank(t *testing.T) {
	assert.True(t, RawRow(nil).IsBlank())
	assert.True(t, RawRow{"EMAIL": " ", "SUPERVISOR_NUMBER": ""}.IsBlank())
	assert.False(t, RawRow{"EMAIL": "", "SUPERVISOR_NUMBER": "E1"}.IsBlank())
}

func TestProfile_Values(t *testing.T) {
	p := Profile{Number: "E1", FirstName: "Ann", Email: "ann@x.com"}
	vals := p.Values()
	assert.Len(t, vals, len(Columns))
	assert.Equal(t, "E1", vals[0])
	assert.Equal(t, "Ann", vals[3])
	assert.Equal(t, "ann@x.com", vals[8])
	assert.Equal(t, len(Columns), len(Headers()))
}

func TestSupervisor_FullName(t *testing.T) {
	tests := []struct {
		name string
		p    Profile
		want string
	}{
		{name: "all parts", p: Profile{Title: "Mr", Initials: "J.K", FirstName: "John", Surname: "Doe"}, want: "Mr J.K John Doe"},
		{name: "no title nor initials", p: Profile{FirstName: "John", Surname: "Doe"}, want: "John Doe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Supervisor{Profile: tt.p}.FullName())
		})
	}
}
