package partials

type Partial string
