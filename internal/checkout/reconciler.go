package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xquisito/pickandgo/internal/models"
	"github.com/xquisito/pickandgo/internal/storage"
)

const branchSlotPrefix = "xquisito-pickandgo-branch-"

// BranchContext remembers the active pickup branch per customer and
// restaurant.
type BranchContext struct {
	slots storage.SlotStore
}

func NewBranchContext(slots storage.SlotStore) *BranchContext {
	return &BranchContext{slots: slots}
}

// Current returns the active branch number, or 0 when none was chosen.
func (b *BranchContext) Current(ctx context.Context, customer models.CustomerIdentity, restaurantID string) (int, error) {
	data, err := b.slots.GetDurable(ctx, customer.OwnerID(), branchSlotPrefix+restaurantID)
	if errors.Is(err, storage.ErrSlotNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read active branch: %w", err)
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, fmt.Errorf("invalid active branch %q: %w", data, err)
	}
	return n, nil
}

// Set makes branchNumber the active branch.
func (b *BranchContext) Set(ctx context.Context, customer models.CustomerIdentity, restaurantID string, branchNumber int) error {
	return b.slots.PutDurable(ctx, customer.OwnerID(), branchSlotPrefix+restaurantID, []byte(strconv.Itoa(branchNumber)))
}

// ReconcileResult is the preview of a branch switch.
type ReconcileResult struct {
	Remove []models.CartLineItem
	Keep   []models.CartLineItem

	// FailOpen is set when the catalog could not be fetched and every item
	// was assumed available.
	FailOpen bool
}

// SwitchResult reports what ApplySwitch did.
type SwitchResult struct {
	Removed []string
	Failed  []string
}

// Reconciler re-validates the cart against a branch menu before the active
// branch changes.
type Reconciler struct {
	catalog  BranchCatalog
	cart     Cart
	branches *BranchContext
	observer Observer
	logger   *slog.Logger
}

func NewReconciler(catalog BranchCatalog, cart Cart, branches *BranchContext, observer Observer, logger *slog.Logger) *Reconciler {
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{catalog: catalog, cart: cart, branches: branches, observer: observer, logger: logger}
}

// Reconcile partitions items by availability at the target branch. It never
// fails: a catalog error yields an empty removal list.
func (r *Reconciler) Reconcile(ctx context.Context, items []models.CartLineItem, restaurantID string, targetBranch int) ReconcileResult {
	menu, err := r.catalog.MenuForBranch(ctx, restaurantID, targetBranch)
	if err != nil {
		r.logger.Warn("Branch catalog unavailable, assuming all items available",
			"restaurant_id", restaurantID,
			"branch", targetBranch,
			"error", err,
		)
		keep := make([]models.CartLineItem, len(items))
		copy(keep, items)
		return ReconcileResult{Keep: keep, FailOpen: true}
	}

	available := make(map[string]struct{})
	for _, section := range menu {
		for _, item := range section.Items {
			if item.IsAvailable != nil && !*item.IsAvailable {
				continue
			}
			available[item.ID] = struct{}{}
		}
	}

	var res ReconcileResult
	for _, item := range items {
		if _, ok := available[item.ID]; ok {
			res.Keep = append(res.Keep, item)
		} else {
			res.Remove = append(res.Remove, item)
		}
	}
	return res
}

// ApplySwitch removes the confirmed items one by one, switches the branch and
// refreshes the cart. Removal and refresh failures are logged only; a failure
// to persist the new branch is returned.
func (r *Reconciler) ApplySwitch(ctx context.Context, customer models.CustomerIdentity, ref models.CartRef, targetBranch int, remove []models.CartLineItem, failOpen bool) (SwitchResult, error) {
	var res SwitchResult
	for _, item := range remove {
		if err := r.cart.RemoveItem(ctx, ref, item.CartItemID); err != nil {
			r.logger.Warn("Failed to remove unavailable item",
				"cart_item_id", item.CartItemID,
				"item", item.Name,
				"branch", targetBranch,
				"error", err,
			)
			res.Failed = append(res.Failed, item.CartItemID)
			continue
		}
		res.Removed = append(res.Removed, item.CartItemID)
	}
	r.observer.ObserveReconciliation(len(res.Removed), failOpen)

	if err := r.branches.Set(ctx, customer, ref.RestaurantID, targetBranch); err != nil {
		return res, fmt.Errorf("failed to switch branch: %w", err)
	}

	ref.BranchNumber = targetBranch
	if err := r.cart.Refresh(ctx, ref); err != nil {
		r.logger.Warn("Cart refresh after branch switch failed", "branch", targetBranch, "error", err)
	}

	r.logger.Info("Branch switched",
		"restaurant_id", ref.RestaurantID,
		"branch", targetBranch,
		"removed", len(res.Removed),
		"failed", len(res.Failed),
	)
	return res, nil
}
