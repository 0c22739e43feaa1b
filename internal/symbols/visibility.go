package symbols

import "tower/internal/descriptors"

// VisibilityRules implements descriptors.VisibilityChecker.
//
// Public and internal declarations are always visible. Private members are
// visible from anywhere inside their container, protected members from
// inside their class or a subclass of it. Top-level private declarations
// are visible everywhere in the universe.
type VisibilityRules struct{}

var _ descriptors.VisibilityChecker = VisibilityRules{}

func (VisibilityRules) FindInvisibleMember(_ descriptors.ReceiverValue, d, from descriptors.Descriptor) descriptors.Descriptor {
	if d == nil {
		return nil
	}
	switch d.Visibility() {
	case descriptors.VisibilityPrivate:
		container := d.Container()
		if container == nil || encloses(container, from) {
			return nil
		}
		return d
	case descriptors.VisibilityProtected:
		class, ok := d.Container().(descriptors.Class)
		if !ok || insideSubclass(class, from) {
			return nil
		}
		return d
	default:
		return nil
	}
}

func encloses(container, from descriptors.Descriptor) bool {
	for cur := from; cur != nil; cur = cur.Container() {
		if cur == container {
			return true
		}
	}
	return false
}

func insideSubclass(class descriptors.Class, from descriptors.Descriptor) bool {
	base := class.DefaultType()
	for cur := from; cur != nil; cur = cur.Container() {
		c, ok := cur.(descriptors.Class)
		if !ok {
			continue
		}
		if c == class {
			return true
		}
		if t := c.DefaultType(); t != nil && base != nil && t.IsSubtypeOf(base) {
			return true
		}
	}
	return false
}
