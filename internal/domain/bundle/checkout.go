package bundle

// CheckoutLine is one line of an upstream checkout.
type CheckoutLine struct {
	ID        string
	VariantID string
	Quantity  int
	UnitPrice Money
}

// Checkout is the upstream cart. The service only reads it and appends lines.
type Checkout struct {
	ID         string
	Token      string
	Lines      []CheckoutLine
	TotalPrice Money
	Metadata   []MetadataItem
}

// LineIDs returns the set of line ids currently on the checkout.
func (c *Checkout) LineIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(c.Lines))
	for _, line := range c.Lines {
		ids[line.ID] = struct{}{}
	}
	return ids
}

// MetadataValue returns the checkout metadata stored under key.
func (c *Checkout) MetadataValue(key string) (string, bool) {
	return lookup(c.Metadata, key)
}

// NewLines returns the lines of after whose ids are not in before, in checkout order.
// A nil before means every line is new.
func NewLines(before map[string]struct{}, after *Checkout) []CheckoutLine {
	var added []CheckoutLine
	for _, line := range after.Lines {
		if _, existed := before[line.ID]; existed {
			continue
		}
		added = append(added, line)
	}
	return added
}

// SetMetadata replaces the value under key, appending the key when it is new.
func (c *Checkout) SetMetadata(key, value string) {
	for i := range c.Metadata {
		if c.Metadata[i].Key == key {
			c.Metadata[i].Value = value
			return
		}
	}
	c.Metadata = append(c.Metadata, MetadataItem{Key: key, Value: value})
}
