package apps_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/apps"
	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/schedule"
	"github.com/trezcool/ecole/core/settings"
	emailsvc "github.com/trezcool/ecole/services/email"
	"github.com/trezcool/ecole/tests"
)

func TestSchool_Stats(t *testing.T) {
	sch, _, _ := testutil.NewSchool(t)

	class := testutil.CreateClass(t, sch.Registry, "6ème A")
	testutil.CreateStudent(t, sch.Registry, class.ID, "Grace", "Mbuyi")
	ns := testutil.NewStudent(class.ID, "Patrick", "Ilunga")
	ns.Gender = "male"
	_, err := sch.Registry.AddStudent(context.Background(), ns)
	require.NoError(t, err)
	testutil.CreateTeacher(t, sch.Teachers, "Jean", "Kabila", "Mathématiques")

	assert.Equal(t, apps.Stats{Students: 2, Teachers: 1, Classes: 1, Boys: 1, Girls: 1}, sch.Stats())
}

func TestSchool_InitAndReset(t *testing.T) {
	ctx := context.Background()
	sch, kv, _ := testutil.NewSchool(t)

	class := testutil.CreateClass(t, sch.Registry, "6ème A")
	testutil.CreateStudent(t, sch.Registry, class.ID, "Grace", "Mbuyi")
	tchr := testutil.CreateTeacher(t, sch.Teachers, "Jean", "Kabila", "Mathématiques")
	_, err := sch.TeacherSchedules.ReplaceSlotsForOwner(ctx, tchr.ID, []schedule.NewSlot{
		{Day: "Lundi", StartTime: "08:00", EndTime: "10:00", Subject: "Mathématiques", TeacherID: tchr.ID},
	})
	require.NoError(t, err)

	// a second container over the same store sees the same data
	other := apps.NewSchool(kv, new(testutil.Logger), nil)
	require.NoError(t, other.Init(ctx))
	assert.Equal(t, sch.Stats(), other.Stats())
	assert.Len(t, other.TeacherSchedules.ListByOwner(tchr.ID), 1)

	kv.SetFailWrites(true)
	assert.Equal(t, testutil.ErrWriteFailed, errors.Cause(sch.Reset(ctx)))
	kv.SetFailWrites(false)

	require.NoError(t, sch.Reset(ctx))
	assert.Equal(t, apps.Stats{}, sch.Stats())
	assert.Empty(t, sch.TeacherSchedules.List())
	assert.Equal(t, settings.Defaults(), sch.Settings.Get())
	for _, key := range apps.StorageKeys {
		_, err := kv.Get(ctx, key)
		assert.Equal(t, core.ErrKeyNotFound, err, key)
	}
}

func TestSchool_Receipt(t *testing.T) {
	sch, _, _ := testutil.NewSchool(t)
	issuedAt := time.Date(2024, 9, 2, 10, 30, 0, 0, time.UTC)
	core.NowFunc = func() time.Time { return issuedAt }
	defer func() { core.NowFunc = time.Now }()

	class := testutil.CreateClass(t, sch.Registry, "6ème A")
	stud := testutil.CreateStudent(t, sch.Registry, class.ID, "Grace", "Mbuyi")

	data, err := sch.Receipt(stud.ID)
	require.NoError(t, err)
	assert.Equal(t, stud.FullName(), data.StudentName)
	assert.Equal(t, settings.Defaults().SchoolName, data.SchoolName)
	assert.Equal(t, issuedAt, data.IssuedAt)

	_, err = sch.Receipt("nope")
	assert.Error(t, err)
}

func TestSchool_RegisterStudent(t *testing.T) {
	ctx := context.Background()
	conf := &core.Config{AppName: "École", Debug: true}
	logger := new(testutil.Logger)
	mailer := emailsvc.NewConsoleServiceMock(conf, logger)
	sch := apps.NewSchool(testutil.NewKV(), logger, mailer)
	require.NoError(t, sch.Init(ctx))
	class := testutil.CreateClass(t, sch.Registry, "6ème A")

	// no office email: registered, nothing sent
	_, err := sch.RegisterStudent(ctx, testutil.NewStudent(class.ID, "Grace", "Mbuyi"))
	require.NoError(t, err)
	assert.Empty(t, mailer.Sent())

	office := "secretariat@ecole.test"
	_, err = sch.Settings.Update(ctx, settings.UpdateSettings{OfficeEmail: &office})
	require.NoError(t, err)

	stud, err := sch.RegisterStudent(ctx, testutil.NewStudent(class.ID, "Patrick", "Ilunga"))
	require.NoError(t, err)
	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, office, sent[0].To[0].Address)
	assert.True(t, strings.Contains(sent[0].Subject, stud.FullName()))
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "application/pdf", sent[0].Attachments[0].ContentType)
	assert.Zero(t, logger.Count("error"))

	// invalid input never reaches the mailer
	_, err = sch.RegisterStudent(ctx, testutil.NewStudent(class.ID, "", "Ilunga"))
	assert.Error(t, err)
	assert.Len(t, mailer.Sent(), 1)
}
