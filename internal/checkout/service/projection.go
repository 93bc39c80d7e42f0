package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	checkoutdomain "github.com/smallbiznis/kasir/internal/checkout/domain"
	"gorm.io/gorm"
)

// project reads a committed transaction back from db. The fresh response and
// every later replay go through here, so they render identically.
func (s *Service) project(ctx context.Context, db *gorm.DB, id snowflake.ID) (*checkoutdomain.Response, error) {
	txn, err := s.repo.FindByID(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, checkoutdomain.ErrTransactionNotFound
	}

	resp := &checkoutdomain.Response{
		ID:                txn.ID,
		Number:            txn.Number,
		Status:            txn.Status,
		CheckoutSessionID: txn.CheckoutSessionID,
		CashierID:         txn.CashierID,
		PaymentMethod:     txn.PaymentMethod,
		PaidAmount:        txn.PaidAmount,
		Subtotal:          txn.Subtotal,
		DiscountTotal:     txn.DiscountTotal,
		Total:             txn.Total,
		CostTotal:         txn.CostTotal,
		ProfitTotal:       txn.ProfitTotal,
		CommissionTotal:   txn.CommissionTotal,
		Change:            txn.ChangeAmount,
		CreatedAt:         txn.CreatedAt.UTC(),
	}

	category, err := s.memberRepo.FindCategoryByID(ctx, db, txn.CategoryID)
	if err != nil {
		return nil, err
	}
	resp.Category = checkoutdomain.CategoryRef{ID: txn.CategoryID}
	if category != nil {
		resp.Category.Code = category.Code
		resp.Category.Name = category.Name
	}

	if txn.MemberID != nil {
		member, err := s.memberRepo.FindMemberByID(ctx, db, *txn.MemberID)
		if err != nil {
			return nil, err
		}
		resp.Member = &checkoutdomain.MemberRef{ID: *txn.MemberID}
		if member != nil {
			resp.Member.Code = member.MemberCode
			resp.Member.Name = member.Name
		}
	}

	items, err := s.repo.ListItems(ctx, db, txn.ID)
	if err != nil {
		return nil, err
	}
	itemIDs := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		itemIDs = append(itemIDs, item.ID)
	}
	commissions, err := s.repo.ListCommissions(ctx, db, itemIDs)
	if err != nil {
		return nil, err
	}
	byItem := make(map[snowflake.ID][]checkoutdomain.CommissionResponse, len(items))
	for _, c := range commissions {
		byItem[c.TransactionItemID] = append(byItem[c.TransactionItemID], checkoutdomain.CommissionResponse{
			TherapistID: c.TherapistID,
			Role:        c.Role,
			Percent:     c.Percent,
			BaseAmount:  c.BaseAmount,
			Amount:      c.Amount,
		})
	}

	names := make(map[snowflake.ID]string)
	therapistRef := func(id *snowflake.ID) (*checkoutdomain.TherapistRef, error) {
		if id == nil {
			return nil, nil
		}
		name, ok := names[*id]
		if !ok {
			therapist, err := s.therapistRepo.FindByID(ctx, db, *id)
			if err != nil {
				return nil, fmt.Errorf("load therapist %s: %w", *id, err)
			}
			if therapist != nil {
				name = therapist.Name
			}
			names[*id] = name
		}
		return &checkoutdomain.TherapistRef{ID: *id, Name: name}, nil
	}

	resp.Items = make([]checkoutdomain.ItemResponse, 0, len(items))
	for _, item := range items {
		out := checkoutdomain.ItemResponse{
			ID:            item.ID,
			Type:          item.Type,
			ProductID:     item.ProductID,
			TreatmentID:   item.TreatmentID,
			Name:          item.Name,
			Qty:           item.Qty,
			UnitPrice:     item.UnitPrice,
			DiscountType:  item.DiscountType,
			DiscountValue: item.DiscountValue,
			LineSubtotal:  item.LineSubtotal,
			Discount:      item.LineDiscount,
			LineTotal:     item.LineTotal,
			CostPrice:     item.CostPrice,
			Profit:        item.Profit,
			Commissions:   byItem[item.ID],
		}
		if out.Therapist, err = therapistRef(item.TherapistID); err != nil {
			return nil, err
		}
		if out.Assistant, err = therapistRef(item.AssistantID); err != nil {
			return nil, err
		}
		resp.Items = append(resp.Items, out)
	}
	return resp, nil
}
