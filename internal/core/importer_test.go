package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const memberHeader = "first_name,last_name,contact_1,contact_2,gender,email,category\n"

type fakeCreator struct {
	calls   int
	members []MemberInput
	err     error
}

func (f *fakeCreator) CreateMembers(_ context.Context, members []MemberInput) ([]uuid.UUID, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.members = append(f.members, members...)
	ids := make([]uuid.UUID, len(members))
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids, nil
}

func csvFile(name, body string) ImportFile {
	return ImportFile{Name: name, Body: strings.NewReader(body)}
}

func runImport(t *testing.T, file ImportFile, opts ImportOptions) (ImportOutcome, *fakeCreator, error) {
	t.Helper()
	fc := &fakeCreator{}
	im := NewImporter(fc, ImporterConfig{MaxFileSize: 1 << 20, Timeout: time.Minute})
	out, err := im.Import(context.Background(), file, opts)
	return out, fc, err
}

func TestImport_OneValidOneMissingName(t *testing.T) {
	body := memberHeader +
		"Jane,Doe,555,,F,j@x.com,Member\n" +
		",Smith,555,,M,,Member\n"

	out, fc, err := runImport(t, csvFile("members.csv", body), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, out.CreatedCount())
	assert.Equal(t, []RowError{{Row: 3, Message: "First name and last name are required."}}, out.Errors)
	assert.Equal(t, []string{"Row 3: First name and last name are required."}, out.ErrorMessages())

	require.Len(t, fc.members, 1)
	assert.Equal(t, MemberInput{
		FirstName: "Jane", LastName: "Doe", Contact1: "555",
		Gender: GenderFemale, Email: "j@x.com", Category: CategoryMember,
	}, fc.members[0])
}

func TestImport_HeaderOnly(t *testing.T) {
	out, fc, err := runImport(t, csvFile("members.csv", memberHeader), ImportOptions{})
	require.NoError(t, err)

	assert.Zero(t, out.CreatedCount())
	assert.Zero(t, out.ErrorCount())
	assert.Zero(t, fc.calls, "no batch create for an empty fold")
	assert.Equal(t, []Notice{{LevelWarning, "No valid members to import."}}, ImportNotices(out))
}

func TestImport_EmptyFile(t *testing.T) {
	out, fc, err := runImport(t, csvFile("members.csv", ""), ImportOptions{})
	require.NoError(t, err)
	assert.Zero(t, out.CreatedCount())
	assert.Zero(t, out.ErrorCount())
	assert.Zero(t, fc.calls)
}

func TestImport_RequestRejections(t *testing.T) {
	tests := []struct {
		name string
		file ImportFile
		want error
	}{
		{"no body", ImportFile{Name: "members.csv"}, ErrNoFile},
		{"no name", ImportFile{Body: strings.NewReader(memberHeader)}, ErrNoFile},
		{"txt file", csvFile("members.txt", memberHeader+"Jane,Doe,,,F,,Member\n"), ErrNotCSV},
		{"csv in the middle", csvFile("members.csv.bak", memberHeader), ErrNotCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, fc, err := runImport(t, tt.file, ImportOptions{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Import() error = %v, want %v", err, tt.want)
			}
			if fc.calls != 0 {
				t.Errorf("CreateMembers called %d times, want 0", fc.calls)
			}
			if out.CreatedCount() != 0 || out.ErrorCount() != 0 {
				t.Errorf("outcome = %+v, want empty", out)
			}
		})
	}
}

func TestImport_UppercaseExtension(t *testing.T) {
	out, _, err := runImport(t, csvFile("MEMBERS.CSV", memberHeader+"Jane,Doe,,,F,,Member\n"), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.CreatedCount())
}

func TestImport_HeaderVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want MemberInput
	}{
		{
			name: "names only uses defaults",
			body: "first_name,last_name\nJane,Doe\n",
			want: MemberInput{FirstName: "Jane", LastName: "Doe", Gender: GenderMale, Category: CategoryMember},
		},
		{
			name: "BOM, padded and mixed case headers",
			body: "\xEF\xBB\xBF First_Name , LAST_NAME ,Gender\nJane,Doe,f\n",
			want: MemberInput{FirstName: "Jane", LastName: "Doe", Gender: GenderFemale, Category: CategoryMember},
		},
		{
			name: "extra and reordered columns",
			body: "notes,category,last_name,first_name\nhello,Pastor,Doe,John\n",
			want: MemberInput{FirstName: "John", LastName: "Doe", Gender: GenderMale, Category: CategoryPastor},
		},
		{
			name: "CRLF line endings",
			body: "first_name,last_name,email\r\nJane,Doe, jane@example.com \r\n",
			want: MemberInput{FirstName: "Jane", LastName: "Doe", Gender: GenderMale, Email: "jane@example.com", Category: CategoryMember},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, fc, err := runImport(t, csvFile("m.csv", tt.body), ImportOptions{})
			require.NoError(t, err)
			require.Empty(t, out.Errors)
			require.Len(t, fc.members, 1)
			assert.Equal(t, tt.want, fc.members[0])
		})
	}
}

func TestImport_RowNumbersFollowPhysicalLines(t *testing.T) {
	body := memberHeader +
		"Jane,Doe,\"12 Main St\nApt 4\",,F,,Member\n" + // lines 2-3
		"Bad,Gender,,,X,,Member\n" + // line 4
		"\n" + // blank line 5 is skipped
		"Bad,Category,,,M,,Elder\n" // line 6

	out, _, err := runImport(t, csvFile("members.csv", body), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, out.CreatedCount())
	assert.Equal(t, []RowError{
		{Row: 4, Message: "Invalid gender 'X'. Must be 'M' or 'F'."},
		{Row: 6, Message: "Invalid category 'Elder'."},
	}, out.Errors)
}

func TestImport_MalformedRowsContinue(t *testing.T) {
	body := memberHeader +
		"Ja\"ne,Doe,,,F,,Member\n" +
		"Short,Row\n" +
		"John,Doe,,,M,,Member\n"

	out, fc, err := runImport(t, csvFile("members.csv", body), ImportOptions{})
	require.NoError(t, err)

	require.Len(t, out.Errors, 2)
	assert.Equal(t, 2, out.Errors[0].Row)
	assert.True(t, strings.HasPrefix(out.Errors[0].Message, "Error processing row - "), out.Errors[0].Message)
	assert.Equal(t, RowError{
		Row:     3,
		Message: "Error processing row - missing value for column 'contact_1' (record has 2 fields)",
	}, out.Errors[1])

	require.Len(t, fc.members, 1)
	assert.Equal(t, "John", fc.members[0].FirstName)
}

func TestImport_InvalidUTF8(t *testing.T) {
	body := memberHeader + "J\xffane,Doe,,,F,,Member\n"

	_, fc, err := runImport(t, csvFile("members.csv", body), ImportOptions{})
	require.ErrorIs(t, err, ErrInvalidEncoding)
	assert.Zero(t, fc.calls)
}

func TestImport_InvalidUTF8AfterValidRows(t *testing.T) {
	var b strings.Builder
	b.WriteString(memberHeader)
	for i := 0; i < 200; i++ {
		b.WriteString("Jane,Doe,,,F,,Member\n")
	}
	b.WriteString("Bad,\xc3\x28,,,F,,Member\n")

	_, fc, err := runImport(t, csvFile("members.csv", b.String()), ImportOptions{})
	require.ErrorIs(t, err, ErrInvalidEncoding)
	assert.Zero(t, fc.calls, "nothing is stored when the file is rejected")
}

func TestImport_FileTooLarge(t *testing.T) {
	fc := &fakeCreator{}
	im := NewImporter(fc, ImporterConfig{MaxFileSize: 16})

	_, err := im.Import(context.Background(), csvFile("members.csv", memberHeader+"Jane,Doe,,,F,,Member\n"), ImportOptions{})
	require.ErrorIs(t, err, ErrFileTooLarge)
	assert.Zero(t, fc.calls)
}

func TestImport_DryRun(t *testing.T) {
	body := memberHeader +
		"Jane,Doe,,,F,,Member\n" +
		"John,Doe,,,M,,Staff\n" +
		",,,,,,\n"

	out, fc, err := runImport(t, csvFile("members.csv", body), ImportOptions{DryRun: true})
	require.NoError(t, err)

	assert.Zero(t, fc.calls)
	assert.True(t, out.DryRun)
	assert.Zero(t, out.CreatedCount())
	assert.Equal(t, 2, out.Valid)
	assert.Equal(t, 1, out.ErrorCount())
	assert.Equal(t, []Notice{
		{LevelSuccess, "Dry run: 2 members would be imported."},
		{LevelWarning, "Errors in import: 1 rows skipped. Check data."},
	}, ImportNotices(out))
}

func TestImport_BatchFailureCreatesNothing(t *testing.T) {
	fc := &fakeCreator{err: errors.New("connection reset by peer")}
	im := NewImporter(fc, ImporterConfig{})

	out, err := im.Import(context.Background(), csvFile("members.csv", memberHeader+"Jane,Doe,,,F,,Member\n"), ImportOptions{})
	require.Error(t, err)
	assert.Equal(t, 1, fc.calls)
	assert.Zero(t, out.CreatedCount())
	assert.Equal(t, "DB004", MapError(err).Code)
}

func TestImport_TooManyImports(t *testing.T) {
	limiter := NewImportLimiter(1, 20*time.Millisecond)
	require.NoError(t, limiter.Acquire(context.Background()))
	defer limiter.Release()

	fc := &fakeCreator{}
	im := NewImporter(fc, ImporterConfig{Limiter: limiter})

	_, err := im.Import(context.Background(), csvFile("members.csv", memberHeader), ImportOptions{})
	require.ErrorIs(t, err, ErrTooManyImports)
	assert.Equal(t, 1, limiter.ActiveCount())
}

func TestImport_ReleasesLimiterSlot(t *testing.T) {
	limiter := NewImportLimiter(1, time.Second)
	im := NewImporter(&fakeCreator{}, ImporterConfig{Limiter: limiter})

	for i := 0; i < 3; i++ {
		_, err := im.Import(context.Background(), csvFile("members.csv", memberHeader+"Jane,Doe,,,F,,Member\n"), ImportOptions{})
		require.NoError(t, err)
	}
	assert.Zero(t, limiter.ActiveCount())
}

func TestImport_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fc := &fakeCreator{}
	im := NewImporter(fc, ImporterConfig{})
	_, err := im.Import(ctx, csvFile("members.csv", memberHeader+"Jane,Doe,,,F,,Member\n"), ImportOptions{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fc.calls)
}

func TestImport_OneByteReads(t *testing.T) {
	body := memberHeader + "Zoë,Ngũgĩ,,,F,,Member\n"
	file := ImportFile{Name: "members.csv", Body: iotest.OneByteReader(strings.NewReader(body))}

	out, fc, err := runImport(t, file, ImportOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, out.CreatedCount())
	assert.Equal(t, "Zoë", fc.members[0].FirstName)
	assert.Equal(t, "Ngũgĩ", fc.members[0].LastName)
}

func TestImport_Metrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	im := NewImporter(&fakeCreator{}, ImporterConfig{Metrics: m})

	body := memberHeader + "Jane,Doe,,,F,,Member\n,Smith,,,M,,Member\n"
	_, err := im.Import(context.Background(), csvFile("members.csv", body), ImportOptions{})
	require.NoError(t, err)
	_, err = im.Import(context.Background(), csvFile("members.txt", body), ImportOptions{})
	require.ErrorIs(t, err, ErrNotCSV)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.importsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importsTotal.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importRows.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importRows.WithLabelValues("skipped")))
}

// A file of N rows with k invalid ones creates N-k members and reports k
// errors at the invalid rows' line numbers.
func TestImport_FoldProperty(t *testing.T) {
	name := rapid.StringMatching(`[A-Za-z]{1,8}`)

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "rows")

		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write(MemberColumns)

		var wantErrRows []int
		for i := 0; i < n; i++ {
			first, last := name.Draw(t, "first"), name.Draw(t, "last")
			gender := rapid.SampledFrom([]string{"M", "F", "m", " f "}).Draw(t, "gender")
			switch rapid.IntRange(0, 3).Draw(t, "fault") {
			case 1:
				first = "  "
				wantErrRows = append(wantErrRows, i+2)
			case 2:
				gender = "Q"
				wantErrRows = append(wantErrRows, i+2)
			}
			_ = w.Write([]string{first, last, "555", "", gender, "", "Member"})
		}
		w.Flush()

		fc := &fakeCreator{}
		im := NewImporter(fc, ImporterConfig{})
		out, err := im.Import(context.Background(), ImportFile{Name: "p.csv", Body: &buf}, ImportOptions{})
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}

		k := len(wantErrRows)
		if out.CreatedCount() != n-k {
			t.Fatalf("created = %d, want %d", out.CreatedCount(), n-k)
		}
		if out.ErrorCount() != k {
			t.Fatalf("errors = %d, want %d", out.ErrorCount(), k)
		}
		for i, e := range out.Errors {
			if e.Row != wantErrRows[i] {
				t.Fatalf("error %d at row %d, want %d", i, e.Row, wantErrRows[i])
			}
		}
		for _, m := range fc.members {
			if m.FirstName == "" || m.LastName == "" {
				t.Fatalf("created member with empty name: %+v", m)
			}
		}
	})
}
