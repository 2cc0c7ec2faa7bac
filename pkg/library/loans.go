package library

import (
	"context"
	"fmt"
	"time"

	"pustaka/pkg/common"
	"pustaka/pkg/jsonapi"
	"pustaka/pkg/models"
)

// DefaultLoanPeriodDays applies when the member's type carries no loan
// period.
const DefaultLoanPeriodDays = 7

const dateLayout = "2006-01-02"

// LoanService implements the circulation lifecycle: checkout and return.
// Reads and writes go through the shared database adapter so the service
// works against both postgres and sqlite.
type LoanService struct {
	db common.Database
}

// NewLoanService creates a loan service over a database adapter.
func NewLoanService(db common.Database) *LoanService {
	return &LoanService{db: db}
}

// CheckoutRequest identifies the member and the physical copy to lend.
type CheckoutRequest struct {
	MemberID string `json:"member_id"`
	ItemCode string `json:"item_code"`
}

// Checkout lends an item to a member. The item must exist and must not be
// out on another open loan; the member must exist, must not be pending,
// and must be within both the expiry date and the loan limit of its
// member type.
func (s *LoanService) Checkout(ctx context.Context, req CheckoutRequest) (*models.Loan, error) {
	if req.MemberID == "" {
		return nil, jsonapi.NewBodyValidationError("missing_member", "member_id is required", "/data/attributes/member_id")
	}
	if req.ItemCode == "" {
		return nil, jsonapi.NewBodyValidationError("missing_item", "item_code is required", "/data/attributes/item_code")
	}

	member, err := s.fetchMember(ctx, req.MemberID)
	if err != nil {
		return nil, err
	}
	if member.IsPending != 0 {
		return nil, jsonapi.NewConflictError(fmt.Sprintf("Member %s registration is still pending", member.MemberID))
	}

	today := time.Now().Format(dateLayout)
	if member.ExpireDate != nil && *member.ExpireDate < today {
		return nil, jsonapi.NewConflictError(fmt.Sprintf("Membership of %s expired on %s", member.MemberID, *member.ExpireDate))
	}

	if err := s.ensureItemAvailable(ctx, req.ItemCode); err != nil {
		return nil, err
	}

	periodDays, loanLimit := s.loanRules(ctx, member)
	if loanLimit > 0 {
		open, err := s.db.NewSelect().
			Table("loan").
			Where("member_id = ?", member.MemberID).
			Where("is_return = ?", 0).
			Count(ctx)
		if err != nil {
			return nil, err
		}
		if open >= loanLimit {
			return nil, jsonapi.NewConflictError(fmt.Sprintf("Member %s reached the loan limit of %d", member.MemberID, loanLimit))
		}
	}

	loan := &models.Loan{
		ItemCode: req.ItemCode,
		MemberID: member.MemberID,
		LoanDate: today,
		DueDate:  time.Now().AddDate(0, 0, periodDays).Format(dateLayout),
		IsLent:   1,
		IsReturn: 0,
	}

	result, err := s.db.NewInsert().Model(loan).Exec(ctx)
	if err != nil {
		return nil, err
	}
	if loan.LoanID == 0 {
		if lastID, lerr := result.LastInsertId(); lerr == nil {
			loan.LoanID = lastID
		}
	}
	return loan, nil
}

// Return closes an open loan. Returning a loan twice is a conflict, not
// an idempotent no-op, so double scans at the desk surface as errors.
func (s *LoanService) Return(ctx context.Context, loanID int64) (*models.Loan, error) {
	var loans []models.Loan
	err := s.db.NewSelect().
		Table("loan").
		Where("loan_id = ?", loanID).
		Limit(1).
		Scan(ctx, &loans)
	if err != nil {
		return nil, err
	}
	if len(loans) == 0 {
		return nil, jsonapi.NewNotFoundError("loans", fmt.Sprintf("%d", loanID))
	}
	loan := loans[0]

	if loan.IsReturn != 0 {
		return nil, jsonapi.NewConflictError(fmt.Sprintf("Loan %d was already returned", loanID))
	}

	today := time.Now().Format(dateLayout)
	_, err = s.db.NewUpdate().
		Table("loan").
		SetMap(map[string]interface{}{
			"is_return":   1,
			"return_date": today,
			"actual":      today,
		}).
		Where("loan_id = ?", loanID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	loan.IsReturn = 1
	loan.ReturnDate = &today
	loan.ActualDate = &today
	return &loan, nil
}

func (s *LoanService) fetchMember(ctx context.Context, memberID string) (*models.Member, error) {
	var members []models.Member
	err := s.db.NewSelect().
		Table("member").
		Where("member_id = ?", memberID).
		Limit(1).
		Scan(ctx, &members)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, jsonapi.NewNotFoundError("members", memberID)
	}
	return &members[0], nil
}

// ensureItemAvailable verifies the item exists and has no open loan.
func (s *LoanService) ensureItemAvailable(ctx context.Context, itemCode string) error {
	exists, err := s.db.NewSelect().
		Table("item").
		Where("item_code = ?", itemCode).
		Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return jsonapi.NewNotFoundError("items", itemCode)
	}

	open, err := s.db.NewSelect().
		Table("loan").
		Where("item_code = ?", itemCode).
		Where("is_return = ?", 0).
		Exists(ctx)
	if err != nil {
		return err
	}
	if open {
		return jsonapi.NewConflictError(fmt.Sprintf("Item %s is out on loan", itemCode))
	}
	return nil
}

// loanRules resolves the loan period and limit from the member's type,
// falling back to defaults when the type is missing.
func (s *LoanService) loanRules(ctx context.Context, member *models.Member) (periodDays, loanLimit int) {
	periodDays = DefaultLoanPeriodDays
	if member.MemberTypeID == nil {
		return periodDays, 0
	}

	var types []models.MemberType
	err := s.db.NewSelect().
		Table("mst_member_type").
		Where("member_type_id = ?", *member.MemberTypeID).
		Limit(1).
		Scan(ctx, &types)
	if err != nil || len(types) == 0 {
		return periodDays, 0
	}
	if types[0].LoanPeriode > 0 {
		periodDays = types[0].LoanPeriode
	}
	return periodDays, types[0].LoanLimit
}
