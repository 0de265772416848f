package saleor

// Operation names, used for spans, metrics and error context.
const (
	OpProduct          = "product"
	OpVariant          = "productVariant"
	OpCheckout         = "checkout"
	OpCheckoutCreate   = "checkoutCreate"
	OpCheckoutLinesAdd = "checkoutLinesAdd"
	OpUpdateMetadata   = "updateMetadata"
)

const checkoutFields = `
  id
  token
  totalPrice {
    gross {
      amount
      currency
    }
  }
  metadata {
    key
    value
  }
  lines {
    id
    quantity
    variant {
      id
    }
    unitPrice {
      gross {
        amount
        currency
      }
    }
  }
`

const productQuery = `
query GetProductDetails($id: ID!, $channel: String!) {
  product(id: $id, channel: $channel) {
    id
    name
    metadata {
      key
      value
    }
  }
}`

const variantQuery = `
query GetVariantDetails($id: ID!, $channel: String!) {
  productVariant(id: $id, channel: $channel) {
    id
    name
    sku
    quantityAvailable
    pricing {
      price {
        gross {
          amount
          currency
        }
      }
    }
  }
}`

const checkoutQuery = `
query GetCheckoutDetails($id: ID!) {
  checkout(id: $id) {` + checkoutFields + `}
}`

const checkoutCreateMutation = `
mutation CreateCheckout($input: CheckoutCreateInput!) {
  checkoutCreate(input: $input) {
    checkout {` + checkoutFields + `}
    errors {
      field
      message
      code
    }
  }
}`

const checkoutLinesAddMutation = `
mutation AddLinesToCheckout($id: ID!, $lines: [CheckoutLineInput!]!) {
  checkoutLinesAdd(id: $id, lines: $lines) {
    checkout {` + checkoutFields + `}
    errors {
      field
      message
      code
    }
  }
}`

const updateMetadataMutation = `
mutation UpdateMetadata($id: ID!, $input: [MetadataInput!]!) {
  updateMetadata(id: $id, input: $input) {
    item {
      metadata {
        key
        value
      }
    }
    errors {
      field
      message
      code
    }
  }
}`
