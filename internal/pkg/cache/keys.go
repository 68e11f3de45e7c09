package cache

const (
	KeyTree           = "catalog:tree"
	PrefixFacets      = "catalog:facets"
	PrefixProductList = "catalog:products:list"
	PrefixVariantLock = "lock:variant:"
)
