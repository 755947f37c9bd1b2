package workflow

import "github.com/rpupo63/hackathon-review-backend/errs"

// MaxReuploadRequests is the hard ceiling on re-upload requests per phase submission.
const MaxReuploadRequests = 2

// CheckReupload is the one authoritative gate for issuing a re-upload
// request against a submission that has already received count requests.
// Client-side prechecks (RemainingReuploads) are hints only.
func CheckReupload(count int) error {
	if count >= MaxReuploadRequests {
		return errs.NewReuploadLimitExceededError(MaxReuploadRequests)
	}
	return nil
}

// RemainingReuploads is how many more re-upload requests count allows.
func RemainingReuploads(count int) int {
	if count >= MaxReuploadRequests {
		return 0
	}
	if count < 0 {
		return MaxReuploadRequests
	}
	return MaxReuploadRequests - count
}
