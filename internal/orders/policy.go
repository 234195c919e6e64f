package orders

import "fmt"

// authorize decides whether actor may run action on o.
func authorize(actor Actor, o Order, action Action) error {
	switch actor.Role {
	case RoleSystem:
		return nil
	case RoleBusiness:
		if actor.BusinessID == "" || actor.BusinessID != o.BusinessID {
			return fmt.Errorf("%w: order %s belongs to another business", ErrUnauthorized, o.ID)
		}
		if action == ActionPay {
			return fmt.Errorf("%w: payments are recorded by the payment provider", ErrUnauthorized)
		}
		return nil
	case RoleCustomer:
		if actor.UserID == "" || actor.UserID != o.UserID {
			return fmt.Errorf("%w: order %s belongs to another user", ErrUnauthorized, o.ID)
		}
		if action != ActionCancel {
			return fmt.Errorf("%w: customers cannot %s orders", ErrUnauthorized, action)
		}
		if o.Status != StatusRequiresConfirmation && o.Status != StatusPending {
			return fmt.Errorf("%w: order %s can no longer be canceled by the customer", ErrUnauthorized, o.ID)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown role %q", ErrUnauthorized, actor.Role)
}

// canView decides read access; it mirrors authorize without the action rules.
func canView(actor Actor, o Order) bool {
	switch actor.Role {
	case RoleSystem:
		return true
	case RoleBusiness:
		return actor.BusinessID != "" && actor.BusinessID == o.BusinessID
	case RoleCustomer:
		return actor.UserID != "" && actor.UserID == o.UserID
	}
	return false
}
