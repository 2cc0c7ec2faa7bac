package library

import (
	"context"
	"time"

	"pustaka/pkg/common"
	"pustaka/pkg/jsonapi"
	"pustaka/pkg/models"
)

// VisitorService records check-ins at the visitor counter.
type VisitorService struct {
	db common.Database
}

// NewVisitorService creates a visitor service over a database adapter.
func NewVisitorService(db common.Database) *VisitorService {
	return &VisitorService{db: db}
}

// CheckInRequest is one counter entry. MemberID is optional; guests check
// in with a name and institution only.
type CheckInRequest struct {
	MemberID    string `json:"member_id"`
	MemberName  string `json:"member_name"`
	Institution string `json:"institution"`
}

// CheckIn records a visit. When a member id is given the name is taken
// from the member record, so counter typos cannot desync the two tables.
func (v *VisitorService) CheckIn(ctx context.Context, req CheckInRequest) (*models.Visitor, error) {
	visitor := &models.Visitor{
		MemberName:  req.MemberName,
		CheckinDate: time.Now(),
	}
	if req.Institution != "" {
		visitor.Institution = &req.Institution
	}

	if req.MemberID != "" {
		var members []models.Member
		err := v.db.NewSelect().
			Table("member").
			Where("member_id = ?", req.MemberID).
			Limit(1).
			Scan(ctx, &members)
		if err != nil {
			return nil, err
		}
		if len(members) == 0 {
			return nil, jsonapi.NewNotFoundError("members", req.MemberID)
		}
		visitor.MemberID = &members[0].MemberID
		visitor.MemberName = members[0].MemberName
	}

	if visitor.MemberName == "" {
		return nil, jsonapi.NewBodyValidationError("missing_name",
			"member_name is required for guest check-ins", "/data/attributes/member_name")
	}

	result, err := v.db.NewInsert().Model(visitor).Exec(ctx)
	if err != nil {
		return nil, err
	}
	if visitor.VisitorID == 0 {
		if lastID, lerr := result.LastInsertId(); lerr == nil {
			visitor.VisitorID = lastID
		}
	}
	return visitor, nil
}
