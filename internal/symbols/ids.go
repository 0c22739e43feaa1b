package symbols

// ScopeID identifies a scope in the table arena.
type ScopeID uint32

const (
	// NoScopeID marks the absence of a scope reference.
	NoScopeID ScopeID = 0
)

// IsValid reports whether the scope ID refers to an allocated scope.
func (id ScopeID) IsValid() bool { return id != NoScopeID }

// SymbolID identifies a symbol inside the table arena.
type SymbolID uint32

const (
	// NoSymbolID marks the absence of a symbol reference.
	NoSymbolID SymbolID = 0
)

// IsValid reports whether the symbol ID refers to an allocated symbol.
func (id SymbolID) IsValid() bool { return id != NoSymbolID }

// TypeID identifies a type inside the table arena.
type TypeID uint32

const (
	// NoTypeID marks an absent type, e.g. a function without extension receiver.
	NoTypeID TypeID = 0
)

// IsValid reports whether the type ID refers to an allocated type.
func (id TypeID) IsValid() bool { return id != NoTypeID }

// ReceiverID identifies a receiver value inside the table arena.
type ReceiverID uint32

const (
	// NoReceiverID marks the absence of a receiver.
	NoReceiverID ReceiverID = 0
)

// IsValid reports whether the receiver ID refers to an allocated receiver.
func (id ReceiverID) IsValid() bool { return id != NoReceiverID }
