package service

import (
	"context"
	"testing"

	"respawn/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteService_CastChangeRemove(t *testing.T) {
	ctx := context.Background()
	votes := newVoteRepoStub("REVIEW:5", "COMMENT:9")
	svc := NewVoteService(votes)

	_, err := svc.Cast(ctx, VoteInput{UserID: 1, TargetType: "GAME", TargetID: 5, Value: 1})
	assertCode(t, err, models.CodeValidation)
	_, err = svc.Cast(ctx, VoteInput{UserID: 1, TargetType: models.VoteTargetReview, TargetID: 5, Value: 2})
	assertCode(t, err, models.CodeValidation)
	_, err = svc.Cast(ctx, VoteInput{UserID: 1, TargetType: models.VoteTargetReview, TargetID: 6, Value: 1})
	assertCode(t, err, models.CodeNotFound)

	_, err = svc.Cast(ctx, VoteInput{UserID: 1, TargetType: models.VoteTargetReview, TargetID: 5, Value: models.VoteUp})
	require.NoError(t, err)
	_, err = svc.Cast(ctx, VoteInput{UserID: 1, TargetType: models.VoteTargetReview, TargetID: 5, Value: models.VoteUp})
	assertCode(t, err, models.CodeConflict)
	_, err = svc.Cast(ctx, VoteInput{UserID: 2, TargetType: models.VoteTargetReview, TargetID: 5, Value: models.VoteUp})
	require.NoError(t, err)

	vote, err := svc.Change(ctx, VoteInput{UserID: 1, TargetType: models.VoteTargetReview, TargetID: 5, Value: models.VoteDown})
	require.NoError(t, err)
	assert.Equal(t, models.VoteDown, vote.Value)

	tally, err := svc.Tally(ctx, models.VoteTargetReview, 5)
	require.NoError(t, err)
	assert.Equal(t, models.VoteTally{Upvotes: 1, Downvotes: 1}, tally)

	assertCode(t, svc.Remove(ctx, 1, "GAME", 5), models.CodeValidation)
	assertCode(t, svc.Remove(ctx, 1, models.VoteTargetReview, 0), models.CodeValidation)
	require.NoError(t, svc.Remove(ctx, 1, models.VoteTargetReview, 5))

	tally, err = svc.Tally(ctx, models.VoteTargetReview, 5)
	require.NoError(t, err)
	assert.Equal(t, models.VoteTally{Upvotes: 1}, tally)
}

func TestReportService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	reports := newReportRepoStub()
	reports.missing[404] = true
	audit := &auditRepoStub{}
	svc := NewReportService(reports, NewAuditService(audit))

	_, err := svc.CreateReport(ctx, CreateReportInput{ReporterID: 1, TargetType: "PLANET", TargetID: 3, Reason: "spam"})
	assertCode(t, err, models.CodeValidation)
	_, err = svc.CreateReport(ctx, CreateReportInput{ReporterID: 1, TargetType: "review", TargetID: 404, Reason: "spam"})
	assertCode(t, err, models.CodeNotFound)

	report, err := svc.CreateReport(ctx, CreateReportInput{ReporterID: 1, TargetType: "review", TargetID: 3, Reason: " spam "})
	require.NoError(t, err)
	assert.Equal(t, models.ReportTargetReview, report.TargetType)
	assert.Equal(t, models.ReportStatusPending, report.Status)
	assert.Equal(t, "spam", report.Reason)

	_, err = svc.UpdateStatus(ctx, 9, report.ID, "CLOSED")
	assertCode(t, err, models.CodeValidation)

	resolved, err := svc.UpdateStatus(ctx, 9, report.ID, models.ReportStatusResolved)
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedByID)
	assert.Equal(t, uint(9), *resolved.ResolvedByID)
	assert.NotNil(t, resolved.ResolvedAt)

	reopened, err := svc.UpdateStatus(ctx, 9, report.ID, models.ReportStatusInvestigating)
	require.NoError(t, err)
	assert.Nil(t, reopened.ResolvedByID)
	assert.Nil(t, reopened.ResolvedAt)

	listed, total, err := svc.ListReports(ctx, ReportQuery{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, listed, 1)
	assert.Equal(t, 1, reports.loaded)

	require.NoError(t, svc.DeleteReport(ctx, 9, report.ID))
	assertCode(t, svc.DeleteReport(ctx, 9, report.ID), models.CodeNotFound)

	assert.Equal(t, []string{
		models.AuditReportStatusChanged,
		models.AuditReportStatusChanged,
		models.AuditReportDeleted,
	}, audit.actions())
}

func commentFixture() (*CommentService, *commentRepoStub, *settingsStub) {
	comments := newCommentRepoStub(&models.Comment{ID: 1, ReviewID: 100, UserID: 1, BodyMD: "first"})
	reviews := newReviewRepoStub(&models.Review{ID: 100, UserID: 1, GameID: 10})
	users := newUserRepoStub(
		&models.User{ID: 1, Username: "author"},
		&models.User{ID: 2, Username: "banned", IsBanned: true},
		&models.User{ID: 3, Username: "other"},
	)
	settings := defaultSettings()
	return NewCommentService(comments, reviews, users, settings, roleCheck(false)), comments, settings
}

func TestCommentService_CreateComment(t *testing.T) {
	ctx := context.Background()

	svc, _, settings := commentFixture()
	comment, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 3, ReviewID: 100, BodyMD: "  agreed  "})
	require.NoError(t, err)
	assert.Equal(t, "agreed", comment.BodyMD)
	assert.Equal(t, models.CommentStatusPublished, comment.Status)

	_, err = svc.CreateComment(ctx, CreateCommentInput{UserID: 3, ReviewID: 100, BodyMD: "   "})
	assertCode(t, err, models.CodeValidation)
	_, err = svc.CreateComment(ctx, CreateCommentInput{UserID: 3, ReviewID: 999, BodyMD: "hi"})
	assertCode(t, err, models.CodeNotFound)
	_, err = svc.CreateComment(ctx, CreateCommentInput{UserID: 2, ReviewID: 100, BodyMD: "hi"})
	assertCode(t, err, models.CodeForbidden)

	settings.settings.Moderation.MaxCommentsPerReview = 1
	svc.commentRepo.(*commentRepoStub).count = 1
	_, err = svc.CreateComment(ctx, CreateCommentInput{UserID: 3, ReviewID: 100, BodyMD: "hi"})
	assertCode(t, err, models.CodeValidation)
}

func TestCommentService_Ownership(t *testing.T) {
	ctx := context.Background()

	svc, comments, _ := commentFixture()
	_, err := svc.UpdateComment(ctx, UpdateCommentInput{UserID: 3, CommentID: 1, BodyMD: "edit"})
	assertCode(t, err, models.CodeForbidden)
	assertCode(t, svc.DeleteComment(ctx, 3, 1), models.CodeForbidden)

	updated, err := svc.UpdateComment(ctx, UpdateCommentInput{UserID: 1, CommentID: 1, BodyMD: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.BodyMD)

	svc.isStaff = roleCheck(true)
	require.NoError(t, svc.DeleteComment(ctx, 3, 1))
	assert.Equal(t, []uint{1}, comments.deleted)
}
