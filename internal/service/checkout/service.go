package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"marketplace/internal/domain"
	"marketplace/internal/logging"
	"marketplace/internal/repository/ledger"
)

type Request struct {
	BuyerID    int64  `json:"-"`
	CouponCode string `json:"couponCode,omitempty"`
}

// SettledLine is a cart line after reservation: the seller and unit price
// that the order line freezes.
type SettledLine struct {
	ProductID int64           `json:"productId"`
	SellerID  int64           `json:"sellerId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func (l SettledLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Confirmation reports a settled order. Discount is absorbed by the platform:
// sellers are credited the undiscounted line amounts, so the seller credits
// of an order sum to Total + Discount, and the order row keeps Discount for
// reconciliation.
type Confirmation struct {
	OrderID    int64           `json:"orderId"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Total      decimal.Decimal `json:"total"`
	NewBalance decimal.Decimal `json:"newBalance"`
	CouponCode string          `json:"couponCode,omitempty"`
	Lines      []SettledLine   `json:"lines"`
}

// Service settles carts into orders.
type Service struct {
	store   ledger.Store
	logger  *zap.Logger
	timeout time.Duration
}

// New returns a Service. timeout bounds the unit of work; zero leaves it to the caller's context.
func New(store ledger.Store, logger *zap.Logger, timeout time.Duration) *Service {
	return &Service{store: store, logger: logging.OrNop(logger), timeout: timeout}
}

// Estimate is the advisory cart total computed from price hints, rounded once.
func Estimate(lines []domain.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal())
	}
	return domain.RoundMoney(sum)
}

// Checkout converts the buyer's cart into an order. Either every effect is
// committed or none is; failures are always *Error.
func (s *Service) Checkout(ctx context.Context, req Request) (*Confirmation, error) {
	log := s.logger.With(zap.Int64("buyer_id", req.BuyerID))

	lines, err := s.store.CartSnapshot(ctx, req.BuyerID)
	if err != nil {
		return nil, s.storageFailure(log, "load cart", 0, err)
	}
	if len(lines) == 0 {
		return nil, &Error{Kind: KindEmptyCart}
	}

	estimate := Estimate(lines)
	balance, err := s.store.Balance(ctx, req.BuyerID)
	if err != nil {
		return nil, s.storageFailure(log, "read balance", 0, err)
	}
	if balance.LessThan(estimate) {
		log.Info("checkout rejected by estimate",
			zap.String("estimate", estimate.StringFixed(domain.MoneyPlaces)),
			zap.String("balance", balance.StringFixed(domain.MoneyPlaces)))
		return nil, &Error{Kind: KindInsufficientBalance}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var conf *Confirmation
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		c, err := s.settle(ctx, tx, req, lines, log)
		if err != nil {
			return err
		}
		conf = c
		return nil
	})
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			return nil, ce
		}
		return nil, s.storageFailure(log, "commit", 0, err)
	}

	log.Info("checkout settled",
		zap.Int64("order_id", conf.OrderID),
		zap.Int("lines", len(conf.Lines)),
		zap.String("total", conf.Total.StringFixed(domain.MoneyPlaces)),
		zap.String("discount", conf.Discount.StringFixed(domain.MoneyPlaces)))
	return conf, nil
}

func (s *Service) settle(ctx context.Context, tx ledger.Tx, req Request, lines []domain.CartLine, log *zap.Logger) (*Confirmation, error) {
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.ID
	}
	claimed, err := tx.ClaimCart(ctx, req.BuyerID, ids)
	if err != nil {
		return nil, s.storageFailure(log, "claim cart", 0, err)
	}
	if claimed != len(ids) {
		log.Info("checkout cart changed", zap.Int("lines", len(ids)), zap.Int("claimed", claimed))
		return nil, &Error{Kind: KindCartChanged}
	}

	settled := make([]SettledLine, 0, len(lines))
	credits := make(map[int64]decimal.Decimal)
	subtotal := decimal.Zero

	for _, line := range lines {
		sl, err := s.reserve(ctx, tx, line, log)
		if err != nil {
			return nil, err
		}
		amount := sl.Amount()
		subtotal = subtotal.Add(amount)
		credits[sl.SellerID] = credits[sl.SellerID].Add(amount)
		settled = append(settled, sl)
	}

	subtotal = domain.RoundMoney(subtotal)
	discount, total := ApplyCoupon(subtotal, req.CouponCode)
	coupon, _ := NormalizeCoupon(req.CouponCode)

	sellers := make([]int64, 0, len(credits))
	for id := range credits {
		sellers = append(sellers, id)
	}
	sort.Slice(sellers, func(i, j int) bool { return sellers[i] < sellers[j] })

	balances, err := tx.LockAccounts(ctx, lockOrder(req.BuyerID, sellers))
	if err != nil {
		return nil, s.storageFailure(log, "lock balance", 0, err)
	}
	locked, ok := balances[req.BuyerID]
	if !ok {
		return nil, s.storageFailure(log, "lock balance", 0, domain.ErrNotFound)
	}
	if locked.LessThan(total) {
		log.Info("checkout rejected after lock",
			zap.String("total", total.StringFixed(domain.MoneyPlaces)),
			zap.String("balance", locked.StringFixed(domain.MoneyPlaces)))
		return nil, &Error{Kind: KindInsufficientBalanceAfterLock}
	}

	orderID, err := tx.CreateOrder(ctx, ledger.NewOrder{
		BuyerID:    req.BuyerID,
		Total:      total,
		Discount:   discount,
		CouponCode: coupon,
	})
	if err != nil {
		return nil, s.storageFailure(log, "create order", 0, err)
	}
	for _, sl := range settled {
		if _, err := tx.AddOrderLine(ctx, domain.OrderLine{
			OrderID:           orderID,
			ProductID:         sl.ProductID,
			SellerID:          sl.SellerID,
			Quantity:          sl.Quantity,
			Price:             sl.UnitPrice,
			FulfillmentStatus: domain.FulfillmentPending,
		}); err != nil {
			return nil, s.storageFailure(log, "add order line", sl.ProductID, err)
		}
	}

	newBalance, err := tx.AdjustBalance(ctx, req.BuyerID, total.Neg())
	if err != nil {
		return nil, s.storageFailure(log, "debit buyer", 0, err)
	}

	for _, id := range sellers {
		bal, err := tx.AdjustBalance(ctx, id, domain.RoundMoney(credits[id]))
		if err != nil {
			return nil, s.storageFailure(log.With(zap.Int64("seller_id", id)), "credit seller", 0, err)
		}
		if id == req.BuyerID {
			newBalance = bal
		}
	}

	return &Confirmation{
		OrderID:    orderID,
		Subtotal:   subtotal,
		Discount:   discount,
		Total:      total,
		NewBalance: newBalance,
		CouponCode: coupon,
		Lines:      settled,
	}, nil
}

// lockOrder is the ascending, duplicate-free set of accounts a settlement
// writes. sellers must already be sorted.
func lockOrder(buyerID int64, sellers []int64) []int64 {
	ids := make([]int64, 0, len(sellers)+1)
	i := sort.Search(len(sellers), func(i int) bool { return sellers[i] >= buyerID })
	ids = append(ids, sellers[:i]...)
	if i == len(sellers) || sellers[i] != buyerID {
		ids = append(ids, buyerID)
	}
	return append(ids, sellers[i:]...)
}

// reserve resolves a seller for line and decrements its stock. When the
// chosen row no longer covers the quantity, the remaining sellers that do are
// tried once each in seller id order.
func (s *Service) reserve(ctx context.Context, tx ledger.Tx, line domain.CartLine, log *zap.Logger) (SettledLine, error) {
	var sellerID int64
	if line.SellerID != nil {
		sellerID = *line.SellerID
	} else {
		candidates, err := tx.ListSellers(ctx, line.ProductID, 0)
		if err != nil {
			return SettledLine{}, s.storageFailure(log, "list sellers", line.ProductID, err)
		}
		res, err := Resolve(line.ProductID, candidates, nil, line.Quantity)
		if err != nil {
			return SettledLine{}, err
		}
		sellerID = res.SellerID
	}

	price, ok, err := tx.ConditionalDecrement(ctx, sellerID, line.ProductID, line.Quantity)
	if err != nil {
		return SettledLine{}, s.storageFailure(log, "decrement inventory", line.ProductID, err)
	}
	if ok {
		return SettledLine{ProductID: line.ProductID, SellerID: sellerID, Quantity: line.Quantity, UnitPrice: price}, nil
	}

	log.Debug("checkout seller fallback",
		zap.Int64("product_id", line.ProductID), zap.Int64("missed_seller_id", sellerID), zap.Int("qty", line.Quantity))

	candidates, err := tx.ListSellers(ctx, line.ProductID, line.Quantity)
	if err != nil {
		return SettledLine{}, s.storageFailure(log, "list sellers", line.ProductID, err)
	}
	for _, c := range candidates {
		if c.SellerID == sellerID {
			continue
		}
		price, ok, err := tx.ConditionalDecrement(ctx, c.SellerID, line.ProductID, line.Quantity)
		if err != nil {
			return SettledLine{}, s.storageFailure(log, "decrement inventory", line.ProductID, err)
		}
		if ok {
			return SettledLine{ProductID: line.ProductID, SellerID: c.SellerID, Quantity: line.Quantity, UnitPrice: price}, nil
		}
	}
	return SettledLine{}, &Error{Kind: KindInsufficientStock, ProductID: line.ProductID}
}

func (s *Service) storageFailure(log *zap.Logger, phase string, productID int64, err error) *Error {
	fields := []zap.Field{zap.String("phase", phase), zap.Error(err)}
	if productID != 0 {
		fields = append(fields, zap.Int64("product_id", productID))
	}
	log.Error("checkout storage failure", fields...)
	return storageFailure(fmt.Errorf("%s: %w", phase, err))
}
