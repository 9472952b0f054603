// Package resource records live native resources behind opaque handles.
//
// Every file handle acquired by the stream package is inserted into a Table
// while it is open and dropped from it when the owning wrapper releases it.
// The table is the single place where ownership can be audited: a Len() of
// zero after a scope ends means nothing leaked.
//
// # Handle Table
//
//	table := resource.NewTable()
//
//	// Insert a value, get a handle
//	handle := table.Insert(resource.TypeInputStream, f)
//
//	// Remove and run the value's destructor
//	err := table.Drop(handle)
//
//	// Remove without the destructor (ownership leaves the table)
//	value, ok := table.Remove(handle)
//
// A stream that is moved to a new owner goes through Remove and Insert, so
// observers see a removed event followed by a created one.
//
// # Auditing
//
// Each visits the live resources with their type:
//
//	table.Each(func(h resource.Handle, typeID resource.TypeID, v any) bool {
//		log.Println(h, typeID)
//		return true
//	})
//
// # Observers
//
// Register observers to track resource lifecycle events:
//
//	table.Subscribe(resource.NewLogObserver(logger))
//
// # Shutdown
//
// Table.Close drops every remaining resource, combines the destructor errors
// and refuses further inserts.
package resource
