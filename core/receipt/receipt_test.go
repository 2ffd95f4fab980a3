package receipt

import (
	"bytes"
	"encoding/base64"
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecole/core/school"
	"github.com/trezcool/ecole/core/settings"
)

func testData() Data {
	stud := school.Student{
		ID:            "s1",
		AutoID:        7,
		FirstName:     "Grâce",
		LastName:      "Mbala",
		BirthDate:     "2013-01-20",
		BirthPlace:    "Matadi",
		StudentNumber: null.StringFrom("M-007"),
		ParentPhone:   "+243 810 000 000",
		ClassID:       "c1",
		Gender:        school.GenderFemale,
	}
	st := settings.Defaults()
	st.SchoolPhone = "+243 99 000 0000"
	return NewData(stud, "CM1", st, time.Date(2024, 9, 2, 14, 30, 5, 0, time.UTC))
}

func TestNewData(t *testing.T) {
	data := testData()
	assert.Equal(t, "Grâce Mbala", data.StudentName)
	assert.Equal(t, "02/09/2024", data.Date())
	assert.Equal(t, "14:30:05", data.Time())
	assert.Equal(t, "recu-inscription-grâce-mbala-20240902", data.Filename())
	assert.Contains(t, data.Rows, Row{"Genre", "Fille"})
	assert.Contains(t, data.Rows, Row{"Matricule", "M-007"})

	unknown := NewData(school.Student{Gender: school.GenderMale}, "", settings.Defaults(), time.Now())
	assert.Contains(t, unknown.Rows, Row{"Classe", "Classe inconnue"})
	assert.Contains(t, unknown.Rows, Row{"Genre", "Garçon"})
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, testData()))
	html := buf.String()
	for _, want := range []string{"École Sans Base", "Reçu d'inscription", "Grâce Mbala", "CM1", "INSCRIPTION CONFIRMÉE", "Date: 02/09/2024", "Heure: 14:30:05", "Merci de votre confiance"} {
		assert.Contains(t, html, want)
	}
}

func TestRenderPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, testData()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestNewEmail(t *testing.T) {
	msg, err := NewEmail(testData(), mail.Address{Address: "office@ecole.test"})
	require.NoError(t, err)
	assert.True(t, msg.HasRecipients())
	assert.True(t, msg.HasContent())
	require.Len(t, msg.Attachments, 1)

	at := msg.Attachments[0]
	assert.Equal(t, "application/pdf", at.ContentType)
	assert.Equal(t, "recu-inscription-grâce-mbala-20240902.pdf", at.Filename)
	raw, err := base64.StdEncoding.DecodeString(at.Content.String())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))
}
