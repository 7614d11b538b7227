package apple

// FulfillmentResponse is the body of /shop/fulfillment-messages.
type FulfillmentResponse struct {
	Head *ResponseHead    `json:"head"`
	Body *FulfillmentBody `json:"body"`
}

type ResponseHead struct {
	Status string `json:"status"`
}

type FulfillmentBody struct {
	Content *FulfillmentContent `json:"content"`
}

type FulfillmentContent struct {
	PickupMessage *PickupMessage `json:"pickupMessage"`
}

type PickupMessage struct {
	Stores []Store `json:"stores"`
}

// Store is one retail store in a pickup message.
type Store struct {
	StoreName         string                       `json:"storeName"`
	StoreNumber       string                       `json:"storeNumber"`
	RetailStore       *RetailStore                 `json:"retailStore,omitempty"`
	PartsAvailability map[string]*PartAvailability `json:"partsAvailability"`
}

// Street returns the street address, or "" when the response omits it.
func (s Store) Street() string {
	if s.RetailStore == nil {
		return ""
	}
	return s.RetailStore.Address.Street
}

type RetailStore struct {
	Address StoreAddress `json:"address"`
}

type StoreAddress struct {
	Street string `json:"street"`
}

// PartAvailability is the pickup status of one part at one store.
type PartAvailability struct {
	PickupSearchQuote       string `json:"pickupSearchQuote"`
	PickupDisplay           string `json:"pickupDisplay"`
	StorePickupProductTitle string `json:"storePickupProductTitle"`
}

func (r *FulfillmentResponse) stores() ([]Store, bool) {
	if r.Body == nil || r.Body.Content == nil || r.Body.Content.PickupMessage == nil {
		return nil, false
	}
	return r.Body.Content.PickupMessage.Stores, true
}
