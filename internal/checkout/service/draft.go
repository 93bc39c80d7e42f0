package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/kasir/internal/catalog/domain"
	checkoutdomain "github.com/smallbiznis/kasir/internal/checkout/domain"
	commissiondomain "github.com/smallbiznis/kasir/internal/commission/domain"
	"github.com/smallbiznis/kasir/internal/discount"
	memberdomain "github.com/smallbiznis/kasir/internal/member/domain"
	stockdomain "github.com/smallbiznis/kasir/internal/stock/domain"
	therapistdomain "github.com/smallbiznis/kasir/internal/therapist/domain"
	"github.com/smallbiznis/kasir/pkg/money"
	"gorm.io/gorm"
)

// pricedLine is one cart line after pricing, before ids are assigned.
type pricedLine struct {
	line        checkoutdomain.Line
	item        catalogdomain.Item
	unitPrice   decimal.Decimal
	discount    discount.Type
	amounts     discount.LineAmounts
	profit      decimal.Decimal
	commissions []commissiondomain.Line
}

type draft struct {
	lines []pricedLine
}

func (s *Service) priceLines(ctx context.Context, tx *gorm.DB, cart *checkoutdomain.Cart, categoryID snowflake.ID, globalDefault decimal.Decimal) (*draft, error) {
	d := &draft{lines: make([]pricedLine, 0, len(cart.Lines))}
	for i, line := range cart.Lines {
		priced, err := s.priceLine(ctx, tx, line, categoryID, globalDefault)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		d.lines = append(d.lines, priced)
	}
	return d, nil
}

func (s *Service) priceLine(ctx context.Context, tx *gorm.DB, line checkoutdomain.Line, categoryID snowflake.ID, globalDefault decimal.Decimal) (pricedLine, error) {
	var (
		item               catalogdomain.Item
		primary, assistant *therapistdomain.Therapist
		err                error
	)

	switch l := line.(type) {
	case checkoutdomain.ProductLine:
		product, err := s.catalogRepo.FindProduct(ctx, tx, l.ProductID)
		if err != nil {
			return pricedLine{}, err
		}
		if product == nil {
			return pricedLine{}, fmt.Errorf("product %s: %w", l.ProductID, catalogdomain.ErrProductNotFound)
		}
		if !product.Active {
			return pricedLine{}, fmt.Errorf("product %s: %w", l.ProductID, catalogdomain.ErrProductInactive)
		}
		item = product

	case checkoutdomain.TreatmentLine:
		treatment, err := s.catalogRepo.FindTreatment(ctx, tx, l.TreatmentID)
		if err != nil {
			return pricedLine{}, err
		}
		if treatment == nil {
			return pricedLine{}, fmt.Errorf("treatment %s: %w", l.TreatmentID, catalogdomain.ErrTreatmentNotFound)
		}
		if !treatment.Active {
			return pricedLine{}, fmt.Errorf("treatment %s: %w", l.TreatmentID, catalogdomain.ErrTreatmentInactive)
		}
		item = treatment

		if primary, err = s.findTherapist(ctx, tx, l.TherapistID); err != nil {
			return pricedLine{}, err
		}
		if l.AssistantID != nil {
			if assistant, err = s.findTherapist(ctx, tx, *l.AssistantID); err != nil {
				return pricedLine{}, err
			}
		}

	default:
		return pricedLine{}, fmt.Errorf("unsupported line %T", line)
	}

	unitPrice, err := s.pricingSvc.Resolve(ctx, tx, item, categoryID)
	if err != nil {
		return pricedLine{}, err
	}

	terms := line.Terms()
	amounts, err := discount.ComputeLine(discount.LineInput{
		UnitPrice:     unitPrice,
		Qty:           terms.Qty,
		DiscountType:  terms.DiscountType,
		DiscountValue: terms.DiscountValue,
		CostPrice:     item.UnitCost(),
	})
	if err != nil {
		return pricedLine{}, err
	}
	discountType, err := discount.ParseType(string(terms.DiscountType))
	if err != nil {
		return pricedLine{}, err
	}

	priced := pricedLine{
		line:      line,
		item:      item,
		unitPrice: unitPrice,
		discount:  discountType,
		amounts:   amounts,
		profit:    amounts.Profit,
	}

	if line.Kind() == catalogdomain.ItemKindTreatment {
		commissions, err := s.commissionSvc.ForLine(primary, assistant, amounts.Total, globalDefault)
		if err != nil {
			return pricedLine{}, err
		}
		priced.commissions = commissions
		// Commission is a cost of the treatment line.
		owed := decimal.Zero
		for _, c := range commissions {
			owed = owed.Add(c.Amount)
		}
		priced.profit = money.Round2(amounts.Profit.Sub(owed))
	}
	return priced, nil
}

func (s *Service) findTherapist(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*therapistdomain.Therapist, error) {
	therapist, err := s.therapistRepo.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if therapist == nil {
		return nil, fmt.Errorf("therapist %s: %w", id, commissiondomain.ErrTherapistMissing)
	}
	return therapist, nil
}

// transaction sums the priced lines into the header row.
func (d *draft) transaction(id snowflake.ID, number string, cart *checkoutdomain.Cart, category *memberdomain.CustomerCategory, member *memberdomain.Member, cashier string, now time.Time) (*checkoutdomain.Transaction, error) {
	var subtotal, discountTotal, total, costTotal, profitTotal, commissionTotal decimal.Decimal
	for _, l := range d.lines {
		subtotal = subtotal.Add(l.amounts.Subtotal)
		discountTotal = discountTotal.Add(l.amounts.Discount)
		total = total.Add(l.amounts.Total)
		costTotal = costTotal.Add(l.amounts.CostTotal)
		profitTotal = profitTotal.Add(l.profit)
		for _, c := range l.commissions {
			commissionTotal = commissionTotal.Add(c.Amount)
		}
	}
	total = money.Round2(total)
	if !total.IsPositive() {
		return nil, checkoutdomain.ErrNonPositiveTotal
	}
	paid := money.Round2(cart.PaidAmount)

	txn := &checkoutdomain.Transaction{
		ID:                id,
		Number:            number,
		CheckoutSessionID: cart.SessionID,
		CashierID:         cashier,
		CategoryID:        category.ID,
		Status:            checkoutdomain.StatusPaid,
		PaymentMethod:     cart.PaymentMethod,
		PaidAmount:        paid,
		Subtotal:          money.Round2(subtotal),
		DiscountTotal:     money.Round2(discountTotal),
		Total:             total,
		CostTotal:         money.Round2(costTotal),
		ProfitTotal:       money.Round2(profitTotal),
		CommissionTotal:   money.Round2(commissionTotal),
		ChangeAmount:      money.Round2(paid.Sub(total)),
		CreatedAt:         now,
	}
	if member != nil {
		memberID := member.ID
		txn.MemberID = &memberID
	}
	return txn, nil
}

// rows assigns ids and expands the draft into item, commission and SALE
// movement rows belonging to txn.
func (d *draft) rows(genID *snowflake.Node, txn *checkoutdomain.Transaction) ([]checkoutdomain.TransactionItem, []commissiondomain.TherapistCommission, []stockdomain.SaleMovement) {
	items := make([]checkoutdomain.TransactionItem, 0, len(d.lines))
	var commissions []commissiondomain.TherapistCommission
	var sales []stockdomain.SaleMovement

	for _, l := range d.lines {
		terms := l.line.Terms()
		row := checkoutdomain.TransactionItem{
			ID:            genID.Generate(),
			TransactionID: txn.ID,
			Type:          l.line.Kind(),
			Name:          l.item.DisplayName(),
			Qty:           terms.Qty,
			UnitPrice:     l.unitPrice,
			DiscountType:  l.discount,
			DiscountValue: money.Round2(terms.DiscountValue),
			LineSubtotal:  l.amounts.Subtotal,
			LineDiscount:  l.amounts.Discount,
			LineTotal:     l.amounts.Total,
			CostPrice:     money.Round2(l.item.UnitCost()),
			Profit:        l.profit,
			CreatedAt:     txn.CreatedAt,
		}

		switch line := l.line.(type) {
		case checkoutdomain.ProductLine:
			productID := line.ProductID
			row.ProductID = &productID
			sales = append(sales, stockdomain.SaleMovement{
				ProductID:     line.ProductID,
				Quantity:      line.Qty,
				UnitCost:      l.item.UnitCost(),
				TransactionID: txn.ID,
			})
		case checkoutdomain.TreatmentLine:
			treatmentID, therapistID := line.TreatmentID, line.TherapistID
			row.TreatmentID = &treatmentID
			row.TherapistID = &therapistID
			row.AssistantID = line.AssistantID
		}

		for _, c := range l.commissions {
			commissions = append(commissions, commissiondomain.TherapistCommission{
				ID:                genID.Generate(),
				TransactionItemID: row.ID,
				TherapistID:       c.TherapistID,
				Role:              c.Role,
				Percent:           c.Percent,
				BaseAmount:        c.BaseAmount,
				Amount:            c.Amount,
				CreatedAt:         txn.CreatedAt,
			})
		}
		items = append(items, row)
	}
	return items, commissions, sales
}

// newNumber formats YYYYMMDD-HHMMSS-XXXX where XXXX comes from the random
// part of a ULID.
func newNumber(now time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(now), ulid.DefaultEntropy())
	if err != nil {
		return "", err
	}
	suffix := id.String()
	return now.Format("20060102-150405") + "-" + strings.ToUpper(suffix[len(suffix)-4:]), nil
}
